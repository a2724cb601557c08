package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/followuplab/internal/config"
	"github.com/nikhilbhutani/followuplab/internal/database"
	"github.com/nikhilbhutani/followuplab/internal/experiment"
	"github.com/nikhilbhutani/followuplab/internal/followup"
	"github.com/nikhilbhutani/followuplab/internal/llm"
	"github.com/nikhilbhutani/followuplab/internal/progress"
	"github.com/nikhilbhutani/followuplab/internal/queue"
	"github.com/nikhilbhutani/followuplab/internal/queue/workers"
	"github.com/nikhilbhutani/followuplab/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// The worker shares state with the API only through Postgres, so the
	// in-memory store is not an option here.
	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database required for worker", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	gateway := llm.NewGateway(ctx, cfg.LLM, logger)
	generator := followup.NewGenerator(gateway, followup.Config{
		DefaultModel:    cfg.LLM.DefaultModel,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	}, logger)

	svc := experiment.NewService(store.NewPostgresStore(db), generator, logger)
	tracker := progress.NewTracker(progress.NewRedisBackend(rdb), logger)
	worker := workers.NewExperimentWorker(svc, tracker, logger)

	srv := queue.NewServer(cfg.Redis, cfg.Worker, logger)
	mux := queue.NewServeMux(asynq.HandlerFunc(worker.ProcessTask), logger)

	slog.Info("starting worker", "concurrency", cfg.Worker.Concurrency, "models", len(gateway.ListModels()))
	if err := srv.Run(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
