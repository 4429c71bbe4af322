// Package progress stores per-user completion flags of recipe steps, keyed by
// recipe reference and step number.
package progress

import (
	"context"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

type Repository interface {
	// Initialize creates one incomplete entry. It is not idempotent: a second
	// call for the same key violates the primary key.
	Initialize(ctx context.Context, userID int64, ref models.RecipeRef, number int) error

	// Complete and Uncomplete set or clear the flag. A missing entry is a
	// silent no-op, and repeating a transition changes nothing.
	Complete(ctx context.Context, userID int64, ref models.RecipeRef, number int) error
	Uncomplete(ctx context.Context, userID int64, ref models.RecipeRef, number int) error

	List(ctx context.Context, userID int64, ref models.RecipeRef) ([]*models.Progress, error)
	Count(ctx context.Context, userID int64, ref models.RecipeRef) (int, error)

	// DeleteAt removes the entries at number for every user.
	DeleteAt(ctx context.Context, ref models.RecipeRef, number int) error

	// DeleteAbove removes userID's entries numbered above number.
	DeleteAbove(ctx context.Context, userID int64, ref models.RecipeRef, number int) error

	// ShiftForward and ShiftBackward renumber every user's entries with the
	// same semantics as the step store.
	ShiftForward(ctx context.Context, ref models.RecipeRef, from int) error
	ShiftBackward(ctx context.Context, ref models.RecipeRef, from int) error

	// Reset deletes all of userID's entries for ref.
	Reset(ctx context.Context, userID int64, ref models.RecipeRef) error

	// DeleteByRecipe deletes every user's entries for ref.
	DeleteByRecipe(ctx context.Context, ref models.RecipeRef) error
}
