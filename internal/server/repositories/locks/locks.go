// Package locks serializes writers per recipe and per meal plan across server
// instances using PostgreSQL transaction-scoped advisory locks.
package locks

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

type Locker interface {
	// LockRecipe blocks until the lock for ref is held. The lock is released
	// when the surrounding transaction ends, so db must be a transaction.
	LockRecipe(ctx context.Context, ref models.RecipeRef) error

	// LockMealPlan serializes changes to userID's meal plan positions.
	LockMealPlan(ctx context.Context, userID int64) error
}

type PostgresLocker struct {
	db dbx.DBTX
}

func NewPostgresLocker(db dbx.DBTX) *PostgresLocker {
	return &PostgresLocker{db: db}
}

func (l *PostgresLocker) LockRecipe(ctx context.Context, ref models.RecipeRef) error {
	return l.lock(ctx, ref.String())
}

func (l *PostgresLocker) LockMealPlan(ctx context.Context, userID int64) error {
	return l.lock(ctx, fmt.Sprintf("mealplan:%d", userID))
}

func (l *PostgresLocker) lock(ctx context.Context, key string) error {
	if _, err := l.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("db error: locking %s: %w", key, err)
	}
	return nil
}
