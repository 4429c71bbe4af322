package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/repomanager"
)

// Owners answers whether a user owns a recipe. External recipes are public,
// so every user owns them for reading and progress tracking.
type Owners struct {
	repomanager repomanager.RepositoryManager
}

func NewOwners(m repomanager.RepositoryManager) *Owners {
	return &Owners{repomanager: m}
}

// IsOwnedBy returns common.ErrorNotFound if a local recipe does not exist.
func (o *Owners) IsOwnedBy(ctx context.Context, db dbx.DBTX, ref models.RecipeRef, userID int64) (bool, error) {
	switch ref.Kind {
	case models.KindExternal:
		return true, nil
	case models.KindPersonal:
		return o.repomanager.Recipes(db).IsOwner(ctx, ref.ID, userID)
	case models.KindFamily:
		return o.repomanager.FamilyRecipes(db).IsOwner(ctx, ref.ID, userID)
	}
	return false, fmt.Errorf("recipe kind %q: %w", ref.Kind, common.ErrorInvalidArgument)
}

// Authorize converts a negative answer into common.ErrorForbidden.
func (o *Owners) Authorize(ctx context.Context, db dbx.DBTX, ref models.RecipeRef, userID int64) error {
	ok, err := o.IsOwnedBy(ctx, db, ref, userID)
	if err != nil {
		return fmt.Errorf("recipe %s: %w", ref, err)
	}
	if !ok {
		return fmt.Errorf("recipe %s: user %d: %w", ref, userID, common.ErrorForbidden)
	}
	return nil
}
