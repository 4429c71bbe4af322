// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/migrations"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/favorites"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/familyrecipes"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/ingredients"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/likes"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/locks"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/mealplans"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/progress"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/searches"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/steps"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/users"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/views"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes the schema migration hooks.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Recipes(db dbx.DBTX) recipes.Repository {
	return recipes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) FamilyRecipes(db dbx.DBTX) familyrecipes.Repository {
	return familyrecipes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Ingredients(db dbx.DBTX) ingredients.Repository {
	return ingredients.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Steps(db dbx.DBTX) steps.Repository {
	return steps.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Progress(db dbx.DBTX) progress.Repository {
	return progress.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Favorites(db dbx.DBTX) favorites.Repository {
	return favorites.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Views(db dbx.DBTX) views.Repository {
	return views.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Searches(db dbx.DBTX) searches.Repository {
	return searches.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) MealPlans(db dbx.DBTX) mealplans.Repository {
	return mealplans.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Likes(db dbx.DBTX) likes.Repository {
	return likes.NewPostgresRepository(db)
}

// Locks must be given a transaction; advisory locks taken on the pool would
// be released as soon as the statement returns.
func (m *PostgresRepositoryManager) Locks(db dbx.DBTX) locks.Locker {
	return locks.NewPostgresLocker(db)
}

// gooseUpContext and gooseDownContext are seams for testing goose.
var (
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
	gooseDownContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.DownContext(ctx, db, dir, opts...)
	}
)

func setupGoose() error {
	goose.SetBaseFS(migrations.Migrations)
	return goose.SetDialect("pgx")
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// RollbackMigration reverts the most recently applied migration.
func (m *PostgresRepositoryManager) RollbackMigration(ctx context.Context, db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	return gooseDownContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	return &PostgresRepositoryManager{}, nil
}
