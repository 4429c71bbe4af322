package admin

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/config"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cookbook/internal/server/services"
)

const connectTimeout = 10 * time.Second

type postgresBackend struct {
	db    *sql.DB
	m     repomanager.RepositoryManager
	users *services.UserService
}

// ConnectPostgres is the Connector used by cookbookctl.
func ConnectPostgres(ctx context.Context, cfg *config.Config) (Backend, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := dbx.WaitReady(ctx, db, connectTimeout); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database is not reachable: %w", err)
	}

	m, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &postgresBackend{db: db, m: m, users: services.NewUserService(db, m, cfg)}, nil
}

func (b *postgresBackend) MigrateUp(ctx context.Context) error {
	return b.m.RunMigrations(ctx, b.db)
}

func (b *postgresBackend) MigrateDown(ctx context.Context) error {
	return b.m.RollbackMigration(ctx, b.db)
}

func (b *postgresBackend) AddUser(ctx context.Context, reg services.Registration) (*models.User, error) {
	return b.users.Register(ctx, reg)
}

func (b *postgresBackend) Close() error {
	return b.db.Close()
}
