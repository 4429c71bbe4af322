package favorites

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, userID int64, ref models.RecipeRef) error {
	query := `
		INSERT INTO user_favorites (user_id, recipe_kind, recipe_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, string(ref.Kind), ref.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID int64) ([]*models.Favorite, error) {
	query := `
		SELECT recipe_kind, recipe_id, created_at
		FROM user_favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Favorite{}
	for rows.Next() {
		f := &models.Favorite{UserID: userID}
		var kind string
		if err := rows.Scan(&kind, &f.Recipe.ID, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Recipe.Kind = models.RecipeKind(kind)
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID int64, ref models.RecipeRef) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM user_favorites WHERE user_id = $1 AND recipe_kind = $2 AND recipe_id = $3`,
		userID, string(ref.Kind), ref.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, userID int64, ref models.RecipeRef) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_favorites WHERE user_id = $1 AND recipe_kind = $2 AND recipe_id = $3)`,
		userID, string(ref.Kind), ref.ID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) DeleteByRecipe(ctx context.Context, ref models.RecipeRef) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_favorites WHERE recipe_kind = $1 AND recipe_id = $2`, string(ref.Kind), ref.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
