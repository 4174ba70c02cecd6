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

	"github.com/starford/pulpitgraph/internal/api"
	"github.com/starford/pulpitgraph/internal/diagram"
	"github.com/starford/pulpitgraph/internal/index"
	"github.com/starford/pulpitgraph/internal/library"
	"github.com/starford/pulpitgraph/internal/mcpserver"
	"github.com/starford/pulpitgraph/internal/noteservice"
	"github.com/starford/pulpitgraph/internal/sse"
	"github.com/starford/pulpitgraph/internal/storage"
	"github.com/starford/pulpitgraph/internal/workspace"
)

// components are the long-lived pieces shared by every entry point.
type components struct {
	cfg      *Config
	logger   *slog.Logger
	store    storage.Store
	library  *library.Library
	db       *index.DB
	service  *noteservice.Service
	diagrams *diagram.Repository
}

func (c *components) close() {
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Warn("close index failed", slog.String("error", err.Error()))
		}
	}
	if closer, ok := c.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			c.logger.Warn("close storage failed", slog.String("error", err.Error()))
		}
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// bootstrap opens storage and the index and loads the library. When seed is
// true an empty store is populated from seed.path or the starter library.
func (app *application) bootstrap(seed bool) (*components, error) {
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("index_path", cfg.Index.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c := &components{cfg: cfg, logger: logger}

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	c.store = store

	c.diagrams = diagram.NewRepository(store, logger)
	lib, err := library.New(store, logger, library.WithDiagrams(c.diagrams))
	if err != nil {
		c.close()
		return nil, fmt.Errorf("init library: %w", err)
	}
	c.library = lib

	if seed {
		if err := seedLibrary(lib, cfg.Seed.Path, logger); err != nil {
			c.close()
			return nil, err
		}
	}

	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		c.close()
		return nil, fmt.Errorf("init index: %w", err)
	}
	c.db = db

	svc, err := noteservice.NewService(lib, db, logger, noteservice.WithLayout(cfg.Graph.LayoutOptions()))
	if err != nil {
		c.close()
		return nil, fmt.Errorf("init service: %w", err)
	}
	c.service = svc

	return c, nil
}

func seedLibrary(lib *library.Library, path string, logger *slog.Logger) error {
	var entries []library.SeedEntry
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open seed: %w", err)
		}
		entries, err = library.ParseSeed(f)
		f.Close()
		if err != nil {
			return err
		}
	}
	seeded, err := lib.Seed(context.Background(), entries)
	if err != nil {
		return fmt.Errorf("seed library: %w", err)
	}
	if seeded {
		logger.Info("Library seeded", slog.String("seed_path", path), slog.Int("entries", len(entries)))
	}
	return nil
}

func (app *application) newWorkspace(c *components) *workspace.Workspace {
	return workspace.New(c.library, c.diagrams, c.logger, workspace.Options{
		ContentDelay: c.cfg.Autosave.ContentDelay,
		DiagramDelay: c.cfg.Autosave.DiagramDelay,
	})
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := app.bootstrap(true)
	if err != nil {
		return err
	}
	defer c.close()

	cfg := app.config
	logger := c.logger

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.GraphThrottle)
	defer broker.Close()
	c.library.Subscribe(func(ch library.Change) {
		broker.PublishChange(ch.Entity, ch.Kind, ch.ID)
	})

	ws := app.newWorkspace(c)

	apiRouter := api.NewRouter(api.Deps{
		Service:   c.service,
		Workspace: ws,
		Events:    broker,
		Publisher: broker,
	}, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	// Build chi router.
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

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the library when another process edits the data directory.
	if fsStore, ok := c.store.(*storage.FS); ok && cfg.Storage.Watch {
		g.Go(func() error {
			err := storage.Watch(gCtx, fsStore, logger, func(keys []string) {
				if err := c.library.Reload(); err != nil {
					logger.Warn("reload after external change failed", slog.String("error", err.Error()))
				}
			})
			if err != nil {
				logger.Warn("watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
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

		// Pending drafts and diagrams are written before storage closes.
		ws.Close()

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	c, err := app.bootstrap(true)
	if err != nil {
		return err
	}
	defer c.close()

	ws := app.newWorkspace(c)
	defer ws.Close()

	srv := mcpserver.New(c.service, ws, app.version)
	c.logger.Info("MCP server starting on stdio")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}

// Import loads a seed document into an empty store. A store that already
// holds notes or folders is left untouched and ErrNotEmpty is returned.
func Import(ctx context.Context, path string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := app.bootstrap(false)
	if err != nil {
		return err
	}
	defer c.close()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	entries, err := library.ParseSeed(f)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("import %s: no entries", path)
	}
	seeded, err := c.library.Seed(ctx, entries)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	if !seeded {
		return fmt.Errorf("import %s: %w", path, ErrNotEmpty)
	}
	c.logger.Info("Import finished", slog.String("path", path), slog.Int("entries", len(entries)))
	return nil
}

// ErrNotEmpty is returned by Import when the store already has content.
var ErrNotEmpty = errors.New("store is not empty")
