// Package familyrecipes stores recipes attributed to a family member.
package familyrecipes

import (
	"context"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, recipe *models.FamilyRecipe) (*models.FamilyRecipe, error)
	GetByID(ctx context.Context, id int64) (*models.FamilyRecipe, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.FamilyRecipe, error)
	Update(ctx context.Context, id int64, patch models.RecipePatch) (*models.FamilyRecipe, error)
	Delete(ctx context.Context, id int64) error
	IsOwner(ctx context.Context, id, userID int64) (bool, error)
}
