// Package ingredients stores the ingredient lists of personal and family
// recipes in one table keyed by recipe reference.
package ingredients

import (
	"context"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, ing *models.Ingredient) (*models.Ingredient, error)
	ListByRecipe(ctx context.Context, ref models.RecipeRef) ([]*models.Ingredient, error)
	Get(ctx context.Context, id int64) (*models.Ingredient, error)
	Update(ctx context.Context, id int64, patch models.IngredientPatch) (*models.Ingredient, error)
	Delete(ctx context.Context, id int64) error
	DeleteByRecipe(ctx context.Context, ref models.RecipeRef) error
	Count(ctx context.Context, ref models.RecipeRef) (int, error)
}
