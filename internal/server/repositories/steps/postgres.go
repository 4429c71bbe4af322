package steps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

// PostgresRepository implements the step store over dbx.DBTX. The shift
// methods issue one UPDATE per affected number so the
// (recipe_kind, recipe_id, step_number) unique constraint never sees two rows
// with the same number; run them inside a transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, ref models.RecipeRef, number int, description string) (*models.Step, error) {
	query := `
		INSERT INTO recipe_steps (recipe_kind, recipe_id, step_number, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	step := &models.Step{Recipe: ref, Number: number, Description: description}
	if err := r.db.QueryRowContext(ctx, query, string(ref.Kind), ref.ID, number, description).Scan(&step.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return step, nil
}

func (r *PostgresRepository) Get(ctx context.Context, stepID int64) (*models.Step, error) {
	query := `
		SELECT id, recipe_kind, recipe_id, step_number, description
		FROM recipe_steps
		WHERE id = $1
	`
	var (
		step models.Step
		kind string
	)
	err := r.db.QueryRowContext(ctx, query, stepID).
		Scan(&step.ID, &kind, &step.Recipe.ID, &step.Number, &step.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	step.Recipe.Kind = models.RecipeKind(kind)
	return &step, nil
}

func (r *PostgresRepository) List(ctx context.Context, ref models.RecipeRef) ([]*models.Step, error) {
	query := `
		SELECT id, step_number, description
		FROM recipe_steps
		WHERE recipe_kind = $1 AND recipe_id = $2
		ORDER BY step_number
	`
	rows, err := r.db.QueryContext(ctx, query, string(ref.Kind), ref.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Step{}
	for rows.Next() {
		step := &models.Step{Recipe: ref}
		if err := rows.Scan(&step.ID, &step.Number, &step.Description); err != nil {
			return nil, err
		}
		result = append(result, step)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MaxNumber(ctx context.Context, ref models.RecipeRef) (int, error) {
	query := `
		SELECT COALESCE(MAX(step_number), 0)
		FROM recipe_steps
		WHERE recipe_kind = $1 AND recipe_id = $2
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, string(ref.Kind), ref.ID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) UpdateDescription(ctx context.Context, stepID int64, description string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recipe_steps SET description = $1 WHERE id = $2`, description, stepID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, stepID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipe_steps WHERE id = $1`, stepID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) DeleteByRecipe(ctx context.Context, ref models.RecipeRef) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM recipe_steps WHERE recipe_kind = $1 AND recipe_id = $2`, string(ref.Kind), ref.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ShiftForward(ctx context.Context, ref models.RecipeRef, from int) error {
	numbers, err := r.numbers(ctx, ref,
		`SELECT step_number FROM recipe_steps
		 WHERE recipe_kind = $1 AND recipe_id = $2 AND step_number >= $3
		 ORDER BY step_number DESC`, from)
	if err != nil {
		return err
	}
	return r.move(ctx, ref, numbers, 1)
}

func (r *PostgresRepository) ShiftBackward(ctx context.Context, ref models.RecipeRef, from int) error {
	numbers, err := r.numbers(ctx, ref,
		`SELECT step_number FROM recipe_steps
		 WHERE recipe_kind = $1 AND recipe_id = $2 AND step_number > $3
		 ORDER BY step_number ASC`, from)
	if err != nil {
		return err
	}
	return r.move(ctx, ref, numbers, -1)
}

// numbers collects the affected step numbers before any update runs; the
// result set must be closed before the connection is reused.
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

func (r *PostgresRepository) move(ctx context.Context, ref models.RecipeRef, numbers []int, delta int) error {
	query := `
		UPDATE recipe_steps SET step_number = $1
		WHERE recipe_kind = $2 AND recipe_id = $3 AND step_number = $4
	`
	for _, n := range numbers {
		if _, err := r.db.ExecContext(ctx, query, n+delta, string(ref.Kind), ref.ID, n); err != nil {
			return fmt.Errorf("db error: shifting step %d of %s: %w", n, ref, err)
		}
	}
	return nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
