// Package server wires the cookbook services together and runs the REST API
// next to the gRPC operations endpoint until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/logging"
	"github.com/dmitrijs2005/cookbook/internal/server/config"
	"github.com/dmitrijs2005/cookbook/internal/server/httpapi"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cookbook/internal/server/services"
	"github.com/dmitrijs2005/cookbook/internal/server/spoonacular"
	"github.com/dmitrijs2005/cookbook/internal/server/telemetry"

	gs "github.com/dmitrijs2005/cookbook/internal/server/grpc"
)

const (
	dbReadyTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	handler     *httpapi.Handler
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	source := spoonacular.New(c.SpoonacularBaseURL, c.SpoonacularAPIKey, c.SpoonacularTimeout)
	images := services.NewS3Images(c)

	users := services.NewUserService(db, m, c)
	steps := services.NewStepService(db, m, source)
	recipes := services.NewRecipeService(db, m, steps, images)
	library := services.NewLibraryService(db, m, source, logger)
	explore := services.NewExploreService(source, library, logger)

	handler := httpapi.NewHandler(users, steps, recipes, library, explore, httpapi.Options{
		AccessTokenTTL:  c.AccessTokenValidityDuration,
		RefreshTokenTTL: c.RefreshTokenValidityDuration,
		SecureCookies:   c.SecureCookies,
	}, logger)

	return &App{config: c, logger: logger, db: db, repomanager: m, handler: handler}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// prepareDatabase waits for PostgreSQL to come up and applies migrations.
func (app *App) prepareDatabase(ctx context.Context) error {
	if err := dbx.WaitReady(ctx, app.db, dbReadyTimeout); err != nil {
		return fmt.Errorf("database is not reachable: %w", err)
	}
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	return nil
}

func (app *App) runHTTPServer(ctx context.Context) error {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run blocks until a signal arrives or one of the servers fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	shutdownTracing, err := telemetry.Setup(ctx, "cookbook", app.config.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			app.logger.Warn(ctx, "flushing traces failed", "error", err)
		}
	}()

	if err := app.prepareDatabase(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.runHTTPServer(gctx)
	})
	g.Go(func() error {
		return gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.db).Run(gctx)
	})

	if err := g.Wait(); err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}
