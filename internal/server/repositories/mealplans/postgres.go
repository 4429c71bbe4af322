package mealplans

import (
	"context"
	"database/sql"
	"errors"
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

func (r *PostgresRepository) Add(ctx context.Context, userID int64, ref models.RecipeRef) (*models.MealPlanItem, error) {
	query := `
		INSERT INTO meal_plans (user_id, recipe_kind, recipe_id, position)
		SELECT $1, $2, $3, COALESCE(MAX(position), 0) + 1
		FROM meal_plans WHERE user_id = $1
		RETURNING id, position
	`
	item := &models.MealPlanItem{UserID: userID, Recipe: ref}
	if err := r.db.QueryRowContext(ctx, query, userID, string(ref.Kind), ref.ID).Scan(&item.ID, &item.Position); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID int64) ([]*models.MealPlanItem, error) {
	query := `
		SELECT id, recipe_kind, recipe_id, position
		FROM meal_plans
		WHERE user_id = $1
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.MealPlanItem{}
	for rows.Next() {
		item := &models.MealPlanItem{UserID: userID}
		var kind string
		if err := rows.Scan(&item.ID, &kind, &item.Recipe.ID, &item.Position); err != nil {
			return nil, err
		}
		item.Recipe.Kind = models.RecipeKind(kind)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) position(ctx context.Context, userID, itemID int64) (int, error) {
	var pos int
	err := r.db.QueryRowContext(ctx,
		`SELECT position FROM meal_plans WHERE id = $1 AND user_id = $2`, itemID, userID).Scan(&pos)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return pos, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, itemID int64) error {
	pos, err := r.position(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM meal_plans WHERE id = $1 AND user_id = $2`, itemID, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE meal_plans SET position = position - 1 WHERE user_id = $1 AND position > $2`, userID, pos); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM meal_plans WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meal_plans WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Move(ctx context.Context, userID, itemID int64, position int) error {
	from, err := r.position(ctx, userID, itemID)
	if err != nil {
		return err
	}
	count, err := r.Count(ctx, userID)
	if err != nil {
		return err
	}
	to := min(max(position, 1), count)
	if to == from {
		return nil
	}

	var shift string
	if to < from {
		shift = `UPDATE meal_plans SET position = position + 1
			WHERE user_id = $1 AND position >= $2 AND position < $3`
	} else {
		shift = `UPDATE meal_plans SET position = position - 1
			WHERE user_id = $1 AND position > $3 AND position <= $2`
	}
	if _, err := r.db.ExecContext(ctx, shift, userID, to, from); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE meal_plans SET position = $1 WHERE id = $2`, to, itemID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByRecipe(ctx context.Context, ref models.RecipeRef) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM meal_plans WHERE recipe_kind = $1 AND recipe_id = $2`, string(ref.Kind), ref.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	compact := `
		UPDATE meal_plans m SET position = o.rn
		FROM (
			SELECT id, ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY position) AS rn
			FROM meal_plans
		) o
		WHERE m.id = o.id AND m.position <> o.rn
	`
	if _, err := r.db.ExecContext(ctx, compact); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
