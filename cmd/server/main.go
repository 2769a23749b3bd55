// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

// Package main is the entry point for the Pagecrow server.
//
// Pagecrow recommends books by collaborative filtering: given a book
// title, it finds the users who rated that book, correlates their
// ratings of other titles with their ratings of the target (Pearson),
// and returns the most positively correlated titles.
//
// # Startup sequence
//
//  1. Configuration: Koanf v2 layered sources (defaults, config.yaml,
//     environment variables - highest priority wins)
//  2. Logging: zerolog, configured from LOG_LEVEL / LOG_FORMAT
//  3. Database: embedded DuckDB, schema bootstrap
//  4. Dataset: bulk CSV load into books/ratings and the rated_books
//     materialization - the HTTP listener does not start until this
//     completes, so a ready endpoint implies a loaded dataset
//  5. HTTP server: Chi router under a suture supervisor tree
//
// # Configuration
//
// Key environment variables:
//   - HTTP_PORT: listen port (default 8571)
//   - DUCKDB_PATH: database file (default /data/pagecrow.duckdb)
//   - BOOKS_CSV, RATINGS_CSV: source dataset files
//   - DATASET_FORCE_RELOAD: re-ingest even when the database already has data
//   - LOG_LEVEL, LOG_FORMAT: logging behavior
//
// # Signal handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the listener stops
// accepting connections, in-flight requests get the shutdown timeout to
// finish, then the database is checkpointed and closed.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pagecrow/pagecrow/internal/api"
	"github.com/pagecrow/pagecrow/internal/config"
	"github.com/pagecrow/pagecrow/internal/database"
	"github.com/pagecrow/pagecrow/internal/logging"
	"github.com/pagecrow/pagecrow/internal/recommend"
	"github.com/pagecrow/pagecrow/internal/supervisor"
	"github.com/pagecrow/pagecrow/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config is not available yet, so the default logger reports this.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("books_csv", cfg.Dataset.BooksCSV).
		Str("ratings_csv", cfg.Dataset.RatingsCSV).
		Int("min_support", cfg.Engine.MinSupport).
		Msg("Starting Pagecrow")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	// Startup barrier: the dataset must be fully loaded before any
	// request can reach the engine.
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Minute)
	if err := db.Load(loadCtx, cfg.Dataset.BooksCSV, cfg.Dataset.RatingsCSV, cfg.Dataset.ForceReload); err != nil {
		loadCancel()
		logging.Fatal().Err(err).Msg("Failed to load dataset")
	}
	loadCancel()

	engine := recommend.NewEngine(db, recommend.Config{
		MinSupport:        cfg.Engine.MinSupport,
		MinCoRaterRatings: cfg.Engine.MinCoRaterRatings,
	})

	handler := api.NewHandler(engine, db, db, api.HandlerConfig{
		MaxTopN:            cfg.Engine.MaxTopN,
		AutocompleteLimit:  cfg.API.AutocompleteLimit,
		AutocompleteMinLen: cfg.API.AutocompleteMinLen,
	})
	router := api.NewRouter(handler, &cfg.API)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: cfg.Server.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Bridge zerolog to slog for sutureslog.
	slogLogger := logging.NewSlogLogger()

	tree := supervisor.NewTree(slogLogger, supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Server stopped gracefully")
}
