// Package steps holds the durable ordered list of preparation steps of local
// (personal and family) recipes.
package steps

import (
	"context"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

// Repository is the step store. It never renumbers on its own: keeping the
// numbers contiguous is the caller's job, done through the Shift methods.
type Repository interface {
	// Append inserts a step at number. The caller guarantees number does not
	// create a gap and is not occupied.
	Append(ctx context.Context, ref models.RecipeRef, number int, description string) (*models.Step, error)

	// Get returns one step or common.ErrorNotFound.
	Get(ctx context.Context, stepID int64) (*models.Step, error)

	// List returns the steps of ref ordered by number; empty if none.
	List(ctx context.Context, ref models.RecipeRef) ([]*models.Step, error)

	// MaxNumber returns the highest step number of ref, 0 if it has no steps.
	MaxNumber(ctx context.Context, ref models.RecipeRef) (int, error)

	// UpdateDescription fails with common.ErrorNotFound for a missing step.
	UpdateDescription(ctx context.Context, stepID int64, description string) error

	// Delete removes one step without renumbering the rest.
	Delete(ctx context.Context, stepID int64) error

	// DeleteByRecipe removes every step of ref.
	DeleteByRecipe(ctx context.Context, ref models.RecipeRef) error

	// ShiftForward increments every number >= from, highest first.
	ShiftForward(ctx context.Context, ref models.RecipeRef, from int) error

	// ShiftBackward decrements every number > from, lowest first.
	ShiftBackward(ctx context.Context, ref models.RecipeRef, from int) error
}
