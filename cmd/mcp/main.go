// Package main implements the MCP stdio server exposing the handoff
// task queue as handoff_* tools for agent runtimes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atelierhq/handoff-api/internal/config"
	"github.com/atelierhq/handoff-api/internal/platform/logger"
	"github.com/atelierhq/handoff-api/internal/platform/postgres"
	"github.com/atelierhq/handoff-api/internal/service"
	"github.com/atelierhq/handoff-api/internal/tools"
)

const version = "1.0.0"

func main() {
	user := flag.String("user", "",
		"acting identity for created and claimed tasks (falls back to HANDOFF_USER)")
	flag.Parse()

	actor := *user
	if actor == "" {
		actor = os.Getenv("HANDOFF_USER")
	}
	if actor == "" {
		log.Fatal("identity required: pass --user or set HANDOFF_USER")
	}

	if err := run(context.Background(), actor); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}

func run(ctx context.Context, actor string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Stdout carries the MCP protocol; route logs to stderr.
	appLogger, err := logger.SetupWithWriter(cfg.Server, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := setupDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			appLogger.Error("failed to close database connection", "error", cerr)
		}
	}()

	taskStore := postgres.NewPostgresTaskStore(db, appLogger).
		WithLimits(cfg.Queue.DefaultListLimit, cfg.Queue.ResultsLimit)
	repo := service.NewTaskRepositoryAdapter(taskStore, db)

	handoffService, err := service.NewHandoffService(repo, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create handoff service: %w", err)
	}

	registrar, err := tools.NewRegistrar(handoffService, actor)
	if err != nil {
		return err
	}

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "handoff-mcp",
		Version: version,
	}, &mcpsdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.InitializedParams) {
			slog.Info("MCP connection established", "actor", actor)
		},
	})
	registrar.Register(server)

	appLogger.Info("Starting MCP stdio server", "actor", actor)
	if err := server.Run(ctx, mcpsdk.NewStdioTransport()); err != nil {
		return fmt.Errorf("MCP server stopped: %w", err)
	}
	return nil
}
