// datachat - chat-driven analytics assistant server
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/insightlab/datachat/internal/agent"
	"github.com/insightlab/datachat/internal/api"
	"github.com/insightlab/datachat/internal/chart"
	"github.com/insightlab/datachat/internal/config"
	"github.com/insightlab/datachat/internal/dataset"
	"github.com/insightlab/datachat/internal/knowledge"
	"github.com/insightlab/datachat/internal/llm"
	"github.com/insightlab/datachat/internal/middleware"
	"github.com/insightlab/datachat/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	if err := os.MkdirAll(cfg.StaticDir, 0o755); err != nil {
		slog.Error("Failed to create static directory", "error", err, "dir", cfg.StaticDir)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		slog.Error("Failed to create database directory", "error", err)
		os.Exit(1)
	}

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	corpus := knowledge.NewCorpus()
	registry := dataset.NewRegistry(corpus)
	preloadDatasets(registry, cfg.StaticDir)

	renderer, err := chart.NewRenderer(cfg.ChartsDir, "/static/charts")
	if err != nil {
		slog.Error("Failed to initialize chart renderer", "error", err)
		os.Exit(1)
	}

	provider, err := newProvider(cfg)
	if err != nil {
		slog.Error("Failed to initialize model provider", "error", err)
		os.Exit(1)
	}
	slog.Info("Model provider ready", "provider", provider.Name())

	svc := agent.NewService(provider, registry, renderer, corpus, repo)

	// Initialize handlers.
	baseHandler := api.NewHandler(svc, repo, registry, cfg.StaticDir)
	chatHandler := api.NewChatHandler(baseHandler)
	dataHandler := api.NewDataHandler(baseHandler)
	healthHandler := api.NewHealthHandler(repo)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	corsOrigins := []string{"*"}
	if cfg.FrontendURL != "" {
		corsOrigins = []string{cfg.FrontendURL}
	}
	r.Use(middleware.CORS(corsOrigins))

	healthHandler.RegisterHealth(r)
	chatHandler.RegisterRoutes(r)
	dataHandler.RegisterRoutes(r)
	api.RegisterStatic(r, cfg.StaticDir)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // model turns can exceed any sane write timeout
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// newProvider selects the model provider from configuration.
func newProvider(cfg *config.Config) (llm.Provider, error) {
	opts := llm.Options{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		MaxTokens:   cfg.LLM.MaxTokens,
	}

	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		return llm.NewGemini(context.Background(), cfg.LLM.APIKey, opts)
	case config.ProviderOpenAI:
		return llm.NewOpenAI(cfg.LLM.APIKey, cfg.LLM.BaseURL, opts)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.LLM.Provider)
	}
}

// preloadDatasets loads every tabular file already present in the static
// directory so previously uploaded data survives restarts. Individual load
// failures are logged and skipped.
func preloadDatasets(registry *dataset.Registry, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("Failed to scan static directory", "error", err, "dir", dir)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv", ".xlsx", ".xls":
		default:
			continue
		}
		if _, err := registry.Load(filepath.Join(dir, entry.Name())); err != nil {
			slog.Warn("Failed to preload dataset", "error", err, "file", entry.Name())
			continue
		}
		slog.Info("Dataset preloaded", "file", entry.Name())
	}
}
