package views

import (
	"context"
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

func (r *PostgresRepository) Add(ctx context.Context, userID int64, ref models.RecipeRef, keep int) error {
	// Re-opening a recipe moves it to the front instead of duplicating it.
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM recipe_views WHERE user_id = $1 AND recipe_kind = $2 AND recipe_id = $3`,
		userID, string(ref.Kind), ref.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO recipe_views (user_id, recipe_kind, recipe_id) VALUES ($1, $2, $3)`,
		userID, string(ref.Kind), ref.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	trim := `
		DELETE FROM recipe_views
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM recipe_views
			WHERE user_id = $1
			ORDER BY viewed_at DESC, id DESC
			LIMIT $2
		)
	`
	if _, err := r.db.ExecContext(ctx, trim, userID, keep); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, userID int64) ([]*models.RecipeView, error) {
	query := `
		SELECT id, recipe_kind, recipe_id, viewed_at
		FROM recipe_views
		WHERE user_id = $1
		ORDER BY viewed_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.RecipeView{}
	for rows.Next() {
		v := &models.RecipeView{UserID: userID}
		var kind string
		if err := rows.Scan(&v.ID, &kind, &v.Recipe.ID, &v.ViewedAt); err != nil {
			return nil, err
		}
		v.Recipe.Kind = models.RecipeKind(kind)
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recipe_views WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByRecipe(ctx context.Context, ref models.RecipeRef) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM recipe_views WHERE recipe_kind = $1 AND recipe_id = $2`, string(ref.Kind), ref.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
