// Package favorites stores the recipes a user has saved.
package favorites

import (
	"context"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

type Repository interface {
	// Add is idempotent.
	Add(ctx context.Context, userID int64, ref models.RecipeRef) error
	List(ctx context.Context, userID int64) ([]*models.Favorite, error)
	Delete(ctx context.Context, userID int64, ref models.RecipeRef) error
	Exists(ctx context.Context, userID int64, ref models.RecipeRef) (bool, error)
	DeleteByRecipe(ctx context.Context, ref models.RecipeRef) error
}
