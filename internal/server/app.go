// Package server initializes and runs the application: it opens the database,
// applies migrations, wires the services, and serves the HTTP API until the
// process receives a termination signal.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/astepanovs/gatehouse/internal/logging"
	"github.com/astepanovs/gatehouse/internal/server/archive"
	"github.com/astepanovs/gatehouse/internal/server/config"
	"github.com/astepanovs/gatehouse/internal/server/deploy"
	"github.com/astepanovs/gatehouse/internal/server/httpapi"
	"github.com/astepanovs/gatehouse/internal/server/repositories/repomanager"
	"github.com/astepanovs/gatehouse/internal/server/services"
	"github.com/astepanovs/gatehouse/internal/server/webhook"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler *httpapi.Handler
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	manager := repomanager.NewPostgresRepositoryManager()
	if err := manager.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	userService := services.NewUserService(db, manager, cfg)
	codeService := services.NewCodeService(db, manager)

	gatekeeper := webhook.NewGatekeeper([]byte(cfg.WebhookSecret), cfg.ProtectedBranches)
	archiver := archive.NewS3Archiver(cfg, logger)
	trigger := deploy.NewTrigger(deploy.NewExecRunner(), cfg, logger, archiver)

	handler := httpapi.NewHandler(logger, cfg, userService, codeService, gatekeeper, trigger)

	return &App{config: cfg, logger: logger, db: db, handler: handler}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the HTTP API until ctx is cancelled or a termination signal
// arrives, then shuts the server down gracefully.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.handler.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting http server", "addr", app.config.EndpointAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "http server shutdown error", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	app.logger.Info(ctx, "server stopped")
	return nil
}
