package ingredients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

const columns = `id, recipe_kind, recipe_id, name, amount, unit`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Ingredient, error) {
	var (
		ing  models.Ingredient
		kind string
	)
	if err := row.Scan(&ing.ID, &kind, &ing.Recipe.ID, &ing.Name, &ing.Amount, &ing.Unit); err != nil {
		return nil, err
	}
	ing.Recipe.Kind = models.RecipeKind(kind)
	return &ing, nil
}

func (r *PostgresRepository) Add(ctx context.Context, ing *models.Ingredient) (*models.Ingredient, error) {
	query := `
		INSERT INTO recipe_ingredients (recipe_kind, recipe_id, name, amount, unit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + columns
	created, err := scan(r.db.QueryRowContext(ctx, query,
		string(ing.Recipe.Kind), ing.Recipe.ID, ing.Name, ing.Amount, ing.Unit))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) ListByRecipe(ctx context.Context, ref models.RecipeRef) ([]*models.Ingredient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM recipe_ingredients WHERE recipe_kind = $1 AND recipe_id = $2 ORDER BY id`,
		string(ref.Kind), ref.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Ingredient{}
	for rows.Next() {
		ing, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Ingredient, error) {
	ing, err := scan(r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM recipe_ingredients WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ing, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, patch models.IngredientPatch) (*models.Ingredient, error) {
	var set dbx.Assignments
	if patch.Name != nil {
		set.Add("name", *patch.Name)
	}
	if patch.Amount != nil {
		set.Add("amount", *patch.Amount)
	}
	if patch.Unit != nil {
		set.Add("unit", *patch.Unit)
	}
	if set.Empty() {
		return r.Get(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE recipe_ingredients SET %s WHERE id = $%d RETURNING %s`,
		set.SQL(), set.Next(), columns)
	ing, err := scan(r.db.QueryRowContext(ctx, query, set.Args(id)...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ing, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE id = $1`, id)
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

func (r *PostgresRepository) DeleteByRecipe(ctx context.Context, ref models.RecipeRef) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM recipe_ingredients WHERE recipe_kind = $1 AND recipe_id = $2`, string(ref.Kind), ref.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context, ref models.RecipeRef) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipe_ingredients WHERE recipe_kind = $1 AND recipe_id = $2`,
		string(ref.Kind), ref.ID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
