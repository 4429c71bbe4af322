// Package recipes stores personal recipes.
package recipes

import (
	"context"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	GetByID(ctx context.Context, id int64) (*models.Recipe, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Recipe, error)

	// Update applies the non-nil fields of patch that belong to a personal
	// recipe and returns the stored result.
	Update(ctx context.Context, id int64, patch models.RecipePatch) (*models.Recipe, error)
	Delete(ctx context.Context, id int64) error

	// IsOwner reports whether userID authored recipe id. A missing recipe
	// yields common.ErrorNotFound.
	IsOwner(ctx context.Context, id, userID int64) (bool, error)

	IncrementPopularity(ctx context.Context, id int64) error
}
