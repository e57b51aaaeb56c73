package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kbstack/ragkb/internal/api"
	"github.com/kbstack/ragkb/internal/config"
	"github.com/kbstack/ragkb/internal/database"
	"github.com/kbstack/ragkb/internal/document"
	"github.com/kbstack/ragkb/internal/objectstore"
	"github.com/kbstack/ragkb/internal/provider"
	"github.com/kbstack/ragkb/internal/queue"
	"github.com/kbstack/ragkb/internal/ratelimit"
	"github.com/kbstack/ragkb/internal/reconcile"
	"github.com/kbstack/ragkb/internal/retrieval"
	"github.com/kbstack/ragkb/internal/tenant"
	"github.com/kbstack/ragkb/internal/vectorstore"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable", "error", err)
	}
	defer rdb.Close()

	var store objectstore.Store
	switch cfg.ObjectStore.Backend {
	case "http":
		store = objectstore.NewHTTPObjectStore(cfg.ObjectStore.BaseURL, "documents", cfg.ObjectStore.Token)
	default:
		store = objectstore.NewFilesystemStore(cfg.ObjectStore.Root)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		slog.Error("object store unavailable", "error", err)
		os.Exit(1)
	}

	vectors := vectorstore.NewPgVectorStore(db)

	providers, err := provider.NewRegistry(cfg)
	if err != nil {
		slog.Error("provider registry failed", "error", err)
		os.Exit(1)
	}
	if err := vectors.EnsureCollection(ctx, providers.Embedder.Dimension()); err != nil {
		slog.Error("vector collection check failed", "error", err)
		os.Exit(1)
	}

	settings := tenant.NewSettingsStore(db)
	limits := ratelimit.New(cfg.LLM.RateLimitRPS, cfg.LLM.RateLimitBurst)
	retrievalSvc := retrieval.NewService(db, vectors, providers, settings, limits, cfg.LLM.MaxRetries)

	queueClient := queue.NewClient(cfg.Redis, cfg.Conversion)
	defer queueClient.Close()

	split := document.SplitterConfig{
		Strategy:       cfg.Splitter.Strategy,
		ChunkSize:      cfg.Splitter.ChunkSize,
		OverlapPercent: cfg.Splitter.OverlapPercent,
		Delimiters:     cfg.Splitter.Delimiters,
	}
	docSvc := document.NewService(db, store, vectors, queueClient, retrievalSvc, split)
	reconcileSvc := reconcile.NewService(db, retrievalSvc, vectors)

	router := api.NewRouter(db, rdb, cfg, providers, docSvc, retrievalSvc, reconcileSvc, settings)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
