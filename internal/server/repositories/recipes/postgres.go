package recipes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

const columns = `id, user_id, title, image_url, ready_in_minutes, popularity,
	is_vegan, is_vegetarian, is_gluten_free, servings, summary, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Recipe, error) {
	var r models.Recipe
	err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.ImageURL, &r.ReadyInMinutes, &r.Popularity,
		&r.Vegan, &r.Vegetarian, &r.GlutenFree, &r.Servings, &r.Summary, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *PostgresRepository) Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	query := `
		INSERT INTO user_recipes (user_id, title, image_url, ready_in_minutes,
			is_vegan, is_vegetarian, is_gluten_free, servings, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + columns

	created, err := scan(r.db.QueryRowContext(ctx, query,
		recipe.UserID, recipe.Title, recipe.ImageURL, recipe.ReadyInMinutes,
		recipe.Vegan, recipe.Vegetarian, recipe.GlutenFree, recipe.Servings, recipe.Summary))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	recipe, err := scan(r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM user_recipes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return recipe, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Recipe, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM user_recipes WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Recipe{}
	for rows.Next() {
		recipe, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, patch models.RecipePatch) (*models.Recipe, error) {
	var set dbx.Assignments
	if patch.Title != nil {
		set.Add("title", *patch.Title)
	}
	if patch.ImageURL != nil {
		set.Add("image_url", *patch.ImageURL)
	}
	if patch.ReadyInMinutes != nil {
		set.Add("ready_in_minutes", *patch.ReadyInMinutes)
	}
	if patch.Vegan != nil {
		set.Add("is_vegan", *patch.Vegan)
	}
	if patch.Vegetarian != nil {
		set.Add("is_vegetarian", *patch.Vegetarian)
	}
	if patch.GlutenFree != nil {
		set.Add("is_gluten_free", *patch.GlutenFree)
	}
	if patch.Servings != nil {
		set.Add("servings", *patch.Servings)
	}
	if patch.Summary != nil {
		set.Add("summary", *patch.Summary)
	}
	if set.Empty() {
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE user_recipes SET %s WHERE id = $%d RETURNING %s`,
		set.SQL(), set.Next(), columns)
	recipe, err := scan(r.db.QueryRowContext(ctx, query, set.Args(id)...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return recipe, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_recipes WHERE id = $1`, id)
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

func (r *PostgresRepository) IsOwner(ctx context.Context, id, userID int64) (bool, error) {
	var owner int64
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM user_recipes WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return owner == userID, nil
}

func (r *PostgresRepository) IncrementPopularity(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_recipes SET popularity = popularity + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
