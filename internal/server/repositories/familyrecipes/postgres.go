package familyrecipes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

const columns = `id, user_id, title, owner_name, when_to_prepare, image_url,
	ready_in_minutes, servings, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.FamilyRecipe, error) {
	var r models.FamilyRecipe
	err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.OwnerName, &r.WhenToPrepare, &r.ImageURL,
		&r.ReadyInMinutes, &r.Servings, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *PostgresRepository) Create(ctx context.Context, recipe *models.FamilyRecipe) (*models.FamilyRecipe, error) {
	query := `
		INSERT INTO family_recipes (user_id, title, owner_name, when_to_prepare, image_url,
			ready_in_minutes, servings)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + columns

	created, err := scan(r.db.QueryRowContext(ctx, query,
		recipe.UserID, recipe.Title, recipe.OwnerName, recipe.WhenToPrepare, recipe.ImageURL,
		recipe.ReadyInMinutes, recipe.Servings))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.FamilyRecipe, error) {
	recipe, err := scan(r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM family_recipes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return recipe, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.FamilyRecipe, error) {
	return r.list(ctx,
		`SELECT `+columns+` FROM family_recipes WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.FamilyRecipe, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.FamilyRecipe{}
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

func (r *PostgresRepository) Update(ctx context.Context, id int64, patch models.RecipePatch) (*models.FamilyRecipe, error) {
	var set dbx.Assignments
	if patch.Title != nil {
		set.Add("title", *patch.Title)
	}
	if patch.OwnerName != nil {
		set.Add("owner_name", *patch.OwnerName)
	}
	if patch.WhenToPrepare != nil {
		set.Add("when_to_prepare", *patch.WhenToPrepare)
	}
	if patch.ImageURL != nil {
		set.Add("image_url", *patch.ImageURL)
	}
	if patch.ReadyInMinutes != nil {
		set.Add("ready_in_minutes", *patch.ReadyInMinutes)
	}
	if patch.Servings != nil {
		set.Add("servings", *patch.Servings)
	}
	if set.Empty() {
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE family_recipes SET %s WHERE id = $%d RETURNING %s`,
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM family_recipes WHERE id = $1`, id)
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
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM family_recipes WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return owner == userID, nil
}
