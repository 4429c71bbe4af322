// Package searches remembers the last external search of each user.
package searches

import (
	"context"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

type Repository interface {
	// Save replaces the user's previous search.
	Save(ctx context.Context, entry *models.SearchEntry) error
	// Last returns common.ErrorNotFound if the user never searched.
	Last(ctx context.Context, userID int64) (*models.SearchEntry, error)
	DeleteForUser(ctx context.Context, userID int64) error
}
