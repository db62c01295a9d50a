// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/d2chub/internal/api"
	"github.com/starford/d2chub/internal/artifact"
	"github.com/starford/d2chub/internal/catalog"
	"github.com/starford/d2chub/internal/content"
	"github.com/starford/d2chub/internal/mcpserver"
	"github.com/starford/d2chub/internal/metrics"
	"github.com/starford/d2chub/internal/parser"
	"github.com/starford/d2chub/internal/sse"
	"github.com/starford/d2chub/internal/store"
	"github.com/starford/d2chub/internal/watch"
)

// StdoutOutput as the index output writes the artifact to stdout.
const StdoutOutput = "-"

// runtime holds the wired components shared by every command.
type runtime struct {
	cfg     *Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	catalog *catalog.Catalog
	db      *store.DB
	stdout  io.Writer
	version string
}

func (rt *runtime) Close() {
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			rt.logger.Warn("sqlite close failed", slog.String("error", err.Error()))
		}
	}
}

func setup(opts []Option) (*runtime, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logOut == nil {
		app.logOut = os.Stderr
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.version == "" {
		app.version = "dev"
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("content_root", cfg.Content.Root),
		slog.String("parser", cfg.Content.Parser),
		slog.String("output", cfg.Index.Output),
		slog.Bool("strict", cfg.Index.Strict),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	p, err := parser.New(cfg.Content.Parser)
	if err != nil {
		return nil, err
	}

	ix, err := content.New(content.Options{
		Root:          cfg.Content.Root,
		Extension:     cfg.Content.Extension,
		Parser:        p,
		Strict:        cfg.Index.Strict,
		Workers:       cfg.Index.Workers,
		ExcerptLength: cfg.Index.ExcerptLength,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init content: %w", err)
	}

	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		stdout:  app.stdout,
		version: app.version,
	}

	if cfg.SQLite.Enabled() {
		rt.db, err = store.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}

	output := cfg.Index.Output
	if output == StdoutOutput {
		output = ""
	}
	rt.catalog = catalog.New(ix, catalog.Options{
		Output:       output,
		Store:        rt.db,
		Metrics:      rt.metrics,
		Timestamp:    cfg.Index.Timestamp,
		RelatedLimit: cfg.Index.RelatedLimit,
		Logger:       logger,
	})
	return rt, nil
}

// Build runs one full index build and writes the configured artifacts.
func Build(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	snap, err := rt.catalog.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	if rt.cfg.Index.Output == StdoutOutput {
		data, err := artifact.Encode(snap.Index)
		if err != nil {
			return err
		}
		if _, err := rt.stdout.Write(data); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
	}

	rt.logger.Info("Build finished",
		slog.Int("files", snap.Stats.Files),
		slog.Int("indexed", snap.Stats.Indexed),
		slog.Int("skipped", snap.Stats.Skipped),
		slog.String("checksum", snap.Checksum))
	return nil
}

// Serve builds the index, then serves it over HTTP and rebuilds on change.
func Serve(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.cfg
	logger := rt.logger

	// A failed initial build leaves the API answering 503 until the
	// watcher produces a good one.
	if _, err := rt.catalog.Rebuild(ctx); err != nil {
		logger.Warn("initial build failed", slog.String("error", err.Error()))
	}

	broker := sse.NewBroker(2*time.Second, 30*time.Second)
	defer broker.Close()
	rt.metrics.WatchClients(broker.ClientCount)

	routerOpts := api.RouterOptions{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      broker,
		Metrics:     rt.metrics,
	}
	if rt.db != nil {
		routerOpts.Search = rt.db
	}
	apiRouter := api.NewRouter(rt.catalog, routerOpts)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", readyHandler(rt.catalog))
	r.Handle("/metrics", rt.metrics.Handler())

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watch.Watch(gCtx, rt.catalog, watch.Options{
			Root:      cfg.Content.Root,
			Extension: cfg.Content.Extension,
			Notifier:  broker,
			Logger:    logger,
		})
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		// Unblocks the watcher when shutdown came from a signal.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

func readyHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := cat.Snapshot(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"building"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// ServeMCP builds the index and serves it to MCP clients over stdio.
func ServeMCP(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.catalog.Rebuild(ctx); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.catalog, rt.version).ServeStdio()
}
