package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/kbstack/ragkb/internal/config"
	"github.com/kbstack/ragkb/internal/conversion"
	"github.com/kbstack/ragkb/internal/database"
	"github.com/kbstack/ragkb/internal/document"
	"github.com/kbstack/ragkb/internal/objectstore"
	"github.com/kbstack/ragkb/internal/provider"
	"github.com/kbstack/ragkb/internal/queue"
	"github.com/kbstack/ragkb/internal/ratelimit"
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

	var store objectstore.Store
	switch cfg.ObjectStore.Backend {
	case "http":
		store = objectstore.NewHTTPObjectStore(cfg.ObjectStore.BaseURL, "documents", cfg.ObjectStore.Token)
	default:
		store = objectstore.NewFilesystemStore(cfg.ObjectStore.Root)
	}

	vectors := vectorstore.NewPgVectorStore(db)

	providers, err := provider.NewRegistry(cfg)
	if err != nil {
		slog.Error("provider registry failed", "error", err)
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

	worker := conversion.NewWorker(docSvc, providers, cfg.Conversion.MinTextChars, cfg.Conversion.OCREnabled, split)

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeDocumentConvert, asynq.HandlerFunc(worker.ProcessTask))

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Conversion.WorkerConcurrency,
			Queues: map[string]int{
				"conversion": 1,
			},
		},
	)

	slog.Info("starting conversion worker", "concurrency", cfg.Conversion.WorkerConcurrency)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
