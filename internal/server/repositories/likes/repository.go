// Package likes counts likes per recipe of any kind.
package likes

import (
	"context"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

type Repository interface {
	// Increment adds one like and returns the new total.
	Increment(ctx context.Context, ref models.RecipeRef) (int, error)
	Count(ctx context.Context, ref models.RecipeRef) (int, error)
}
