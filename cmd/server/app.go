package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/atelierhq/handoff-api/internal/config"
	"github.com/atelierhq/handoff-api/internal/platform/postgres"
	"github.com/atelierhq/handoff-api/internal/service"
)

// application holds the shared application dependencies so wiring and
// cleanup live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskStore      *postgres.PostgresTaskStore
	handoffService service.HandoffService
}

// newApplication wires the store, repository adapter, and service on
// top of an established database connection.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.taskStore = postgres.NewPostgresTaskStore(db, logger).
		WithLimits(cfg.Queue.DefaultListLimit, cfg.Queue.ResultsLimit)

	repo := service.NewTaskRepositoryAdapter(app.taskStore, db)

	var err error
	app.handoffService, err = service.NewHandoffService(repo, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create handoff service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}
	app.logger.Info("Application shutdown completed")
}
