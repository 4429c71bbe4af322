package likes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Increment(ctx context.Context, ref models.RecipeRef) (int, error) {
	query := `
		INSERT INTO recipe_likes (recipe_kind, recipe_id, likes_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (recipe_kind, recipe_id) DO UPDATE
		SET likes_count = recipe_likes.likes_count + 1
		RETURNING likes_count
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, string(ref.Kind), ref.ID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Count is zero for a recipe nobody liked yet.
func (r *PostgresRepository) Count(ctx context.Context, ref models.RecipeRef) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT likes_count FROM recipe_likes WHERE recipe_kind = $1 AND recipe_id = $2`,
		string(ref.Kind), ref.ID).Scan(&n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
