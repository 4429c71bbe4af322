package searches

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

func (r *PostgresRepository) Save(ctx context.Context, e *models.SearchEntry) error {
	query := `
		INSERT INTO search_history (user_id, search_query, cuisine_filter, diet_filter,
			intolerance_filter, results_limit, searched_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (user_id) DO UPDATE SET
			search_query = EXCLUDED.search_query,
			cuisine_filter = EXCLUDED.cuisine_filter,
			diet_filter = EXCLUDED.diet_filter,
			intolerance_filter = EXCLUDED.intolerance_filter,
			results_limit = EXCLUDED.results_limit,
			searched_at = EXCLUDED.searched_at
	`
	_, err := r.db.ExecContext(ctx, query, e.UserID, e.Query, e.Cuisine, e.Diet, e.Intolerance, e.Limit)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Last(ctx context.Context, userID int64) (*models.SearchEntry, error) {
	query := `
		SELECT search_query, cuisine_filter, diet_filter, intolerance_filter, results_limit, searched_at
		FROM search_history
		WHERE user_id = $1
	`
	e := &models.SearchEntry{UserID: userID}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&e.Query, &e.Cuisine, &e.Diet, &e.Intolerance, &e.Limit, &e.SearchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
