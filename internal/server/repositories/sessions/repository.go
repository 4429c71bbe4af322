// Package sessions declares the repository contract for server-stored
// refresh tokens (login sessions).
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking sessions.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID int64, token string, validity time.Duration) error

	// Find looks up a session by its opaque token string.
	// Returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.Session, error)

	// Delete removes a session by token.
	// Returns common.ErrorNotFound when no session had that token.
	Delete(ctx context.Context, token string) error

	// DeleteForUser removes every session of userID.
	DeleteForUser(ctx context.Context, userID int64) error
}
