// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/casefile/internal/api"
	"github.com/starford/casefile/internal/caseservice"
	"github.com/starford/casefile/internal/index"
	"github.com/starford/casefile/internal/mcpserver"
)

// Run starts the HTTP API and the index watcher with the given options and
// blocks until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := New(opts...)
	if err != nil {
		return err
	}
	return app.Serve(ctx)
}

// RunMCP serves the MCP tools on stdin/stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := New(opts...)
	if err != nil {
		return err
	}
	return app.ServeMCP(ctx)
}

// newHandler mounts the API and health checks on a fresh chi router.
func newHandler(svc *caseservice.Service, cfg HTTPConfig) http.Handler {
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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(svc, cfg.AuthEnabled(), cfg.AuthToken))
	return r
}

// Serve runs the HTTP API until shutdown.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.cfg
	logger := a.logger
	base := a.cases.Base()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.HTTP.Address()),
		slog.String("base", base),
		slog.String("index_path", cfg.Index.ResolvePath(base)),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// The watcher needs the base to exist.
	if err := a.cases.EnsureBase(); err != nil {
		return err
	}

	db, err := a.openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := index.Sync(db, a.cases, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc := caseservice.NewService(a.cases, db, logger, cfg.Casefile.SearchLimit)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address(),
		Handler:           newHandler(svc, cfg.HTTP),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return index.Watch(gCtx, db, a.cases, base, logger, func(kind, id string) {
			logger.Info("case changed", slog.String("kind", kind), slog.String("case", id))
		})
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
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

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP serves the MCP tools on stdin/stdout. The index is synced once at
// start; tool calls keep it current afterwards. Search is disabled when the
// index cannot be opened.
func (a *App) ServeMCP(ctx context.Context) error {
	if err := a.cases.EnsureBase(); err != nil {
		return err
	}
	var idx index.CaseIndex
	db, err := a.openIndex()
	if err != nil {
		a.logger.Warn("search disabled", slog.String("error", err.Error()))
	} else {
		defer db.Close()
		if err := index.Sync(db, a.cases, a.logger); err != nil {
			a.logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
		idx = db
	}

	svc := caseservice.NewService(a.cases, idx, a.logger, a.cfg.Casefile.SearchLimit)
	srv := mcpserver.New(svc, a.version)
	a.logger.Info("MCP server starting on stdio")
	if err := srv.Serve(ctx, a.stdin, a.stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
