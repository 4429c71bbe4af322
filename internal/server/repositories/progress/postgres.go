package progress

import (
	"context"
	"database/sql"
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

func (r *PostgresRepository) Initialize(ctx context.Context, userID int64, ref models.RecipeRef, number int) error {
	query := `
		INSERT INTO recipe_progress (user_id, recipe_kind, recipe_id, step_number)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, string(ref.Kind), ref.ID, number); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Complete(ctx context.Context, userID int64, ref models.RecipeRef, number int) error {
	query := `
		UPDATE recipe_progress
		SET is_completed = TRUE, completed_at = COALESCE(completed_at, now())
		WHERE user_id = $1 AND recipe_kind = $2 AND recipe_id = $3 AND step_number = $4
	`
	if _, err := r.db.ExecContext(ctx, query, userID, string(ref.Kind), ref.ID, number); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Uncomplete(ctx context.Context, userID int64, ref models.RecipeRef, number int) error {
	query := `
		UPDATE recipe_progress
		SET is_completed = FALSE, completed_at = NULL
		WHERE user_id = $1 AND recipe_kind = $2 AND recipe_id = $3 AND step_number = $4
	`
	if _, err := r.db.ExecContext(ctx, query, userID, string(ref.Kind), ref.ID, number); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID int64, ref models.RecipeRef) ([]*models.Progress, error) {
	query := `
		SELECT step_number, is_completed, completed_at
		FROM recipe_progress
		WHERE user_id = $1 AND recipe_kind = $2 AND recipe_id = $3
		ORDER BY step_number
	`
	rows, err := r.db.QueryContext(ctx, query, userID, string(ref.Kind), ref.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Progress{}
	for rows.Next() {
		p := &models.Progress{UserID: userID, Recipe: ref}
		var completedAt sql.NullTime
		if err := rows.Scan(&p.Number, &p.Completed, &completedAt); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			t := completedAt.Time
			p.CompletedAt = &t
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, userID int64, ref models.RecipeRef) (int, error) {
	query := `
		SELECT COUNT(*) FROM recipe_progress
		WHERE user_id = $1 AND recipe_kind = $2 AND recipe_id = $3
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID, string(ref.Kind), ref.ID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteAt(ctx context.Context, ref models.RecipeRef, number int) error {
	query := `
		DELETE FROM recipe_progress
		WHERE recipe_kind = $1 AND recipe_id = $2 AND step_number = $3
	`
	if _, err := r.db.ExecContext(ctx, query, string(ref.Kind), ref.ID, number); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteAbove(ctx context.Context, userID int64, ref models.RecipeRef, number int) error {
	query := `
		DELETE FROM recipe_progress
		WHERE user_id = $1 AND recipe_kind = $2 AND recipe_id = $3 AND step_number > $4
	`
	if _, err := r.db.ExecContext(ctx, query, userID, string(ref.Kind), ref.ID, number); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ShiftForward(ctx context.Context, ref models.RecipeRef, from int) error {
	numbers, err := r.numbers(ctx, ref,
		`SELECT DISTINCT step_number FROM recipe_progress
		 WHERE recipe_kind = $1 AND recipe_id = $2 AND step_number >= $3
		 ORDER BY step_number DESC`, from)
	if err != nil {
		return err
	}
	return r.move(ctx, ref, numbers, 1)
}

func (r *PostgresRepository) ShiftBackward(ctx context.Context, ref models.RecipeRef, from int) error {
	numbers, err := r.numbers(ctx, ref,
		`SELECT DISTINCT step_number FROM recipe_progress
		 WHERE recipe_kind = $1 AND recipe_id = $2 AND step_number > $3
		 ORDER BY step_number ASC`, from)
	if err != nil {
		return err
	}
	return r.move(ctx, ref, numbers, -1)
}

func (r *PostgresRepository) numbers(ctx context.Context, ref models.RecipeRef, query string, from int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, query, string(ref.Kind), ref.ID, from)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// move renumbers all users' rows at each number in order. The order of
// numbers decides whether the target number is already vacated.
func (r *PostgresRepository) move(ctx context.Context, ref models.RecipeRef, numbers []int, delta int) error {
	query := `
		UPDATE recipe_progress SET step_number = $1
		WHERE recipe_kind = $2 AND recipe_id = $3 AND step_number = $4
	`
	for _, n := range numbers {
		if _, err := r.db.ExecContext(ctx, query, n+delta, string(ref.Kind), ref.ID, n); err != nil {
			return fmt.Errorf("db error: shifting progress %d of %s: %w", n, ref, err)
		}
	}
	return nil
}

func (r *PostgresRepository) Reset(ctx context.Context, userID int64, ref models.RecipeRef) error {
	query := `
		DELETE FROM recipe_progress
		WHERE user_id = $1 AND recipe_kind = $2 AND recipe_id = $3
	`
	if _, err := r.db.ExecContext(ctx, query, userID, string(ref.Kind), ref.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByRecipe(ctx context.Context, ref models.RecipeRef) error {
	query := `DELETE FROM recipe_progress WHERE recipe_kind = $1 AND recipe_id = $2`
	if _, err := r.db.ExecContext(ctx, query, string(ref.Kind), ref.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
