// Package mealplans stores each user's ordered meal plan. Positions start at
// 1 and stay contiguous; the unique (user_id, position) constraint is
// deferred, so renumbering must run inside a transaction.
package mealplans

import (
	"context"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

type Repository interface {
	// Add appends ref at the end of the plan.
	Add(ctx context.Context, userID int64, ref models.RecipeRef) (*models.MealPlanItem, error)
	List(ctx context.Context, userID int64) ([]*models.MealPlanItem, error)

	// Delete removes one item and closes the gap it leaves.
	Delete(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
	Count(ctx context.Context, userID int64) (int, error)

	// Move puts itemID at position, clamped to the plan's bounds, shifting the
	// items in between.
	Move(ctx context.Context, userID, itemID int64, position int) error

	// DeleteByRecipe removes ref from every plan and renumbers what is left.
	DeleteByRecipe(ctx context.Context, ref models.RecipeRef) error
}
