// Package views keeps the most recently opened recipes of each user.
package views

import (
	"context"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

type Repository interface {
	// Add records a view and drops everything but the newest keep views of
	// userID.
	Add(ctx context.Context, userID int64, ref models.RecipeRef, keep int) error
	ListRecent(ctx context.Context, userID int64) ([]*models.RecipeView, error)
	DeleteForUser(ctx context.Context, userID int64) error
	DeleteByRecipe(ctx context.Context, ref models.RecipeRef) error
}
