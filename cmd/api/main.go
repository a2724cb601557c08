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

	"github.com/nikhilbhutani/followuplab/internal/api"
	"github.com/nikhilbhutani/followuplab/internal/api/handlers"
	"github.com/nikhilbhutani/followuplab/internal/config"
	"github.com/nikhilbhutani/followuplab/internal/database"
	"github.com/nikhilbhutani/followuplab/internal/followup"
	"github.com/nikhilbhutani/followuplab/internal/llm"
	"github.com/nikhilbhutani/followuplab/internal/progress"
	"github.com/nikhilbhutani/followuplab/internal/queue"
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
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pingers := map[string]handlers.Pinger{}

	// Without DATABASE_URL everything lives in memory until the process exits.
	var st store.Store
	postgres := false
	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Warn("database unavailable, using in-memory store", "error", err)
		st = store.NewMemoryStore()
	} else {
		defer db.Close()
		if err := database.RunMigrations(ctx, db, database.MigrationSource(cfg.Database.MigrationsPath)); err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		st = store.NewPostgresStore(db)
		postgres = true
		pingers["database"] = db
	}

	// Redis carries run progress and, with Postgres, the task queue. Without
	// it progress is kept in memory.
	var backend progress.Backend = progress.NewMemoryBackend()
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	redisUp := true
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, keeping run progress in memory", "error", err)
		redisUp = false
	} else {
		rb := progress.NewRedisBackend(rdb)
		backend = rb
		pingers["redis"] = rb
	}

	mode := chooseRunMode(postgres, redisUp)
	var enqueue handlers.Enqueuer
	if mode == runModeQueued {
		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		enqueue = qc
	}
	slog.Info("experiment runs", "mode", mode)

	gateway := llm.NewGateway(ctx, cfg.LLM, logger)
	generator := followup.NewGenerator(gateway, followup.Config{
		DefaultModel:    cfg.LLM.DefaultModel,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	}, logger)

	router := api.NewRouter(api.Deps{
		Config:    cfg,
		Store:     st,
		Generator: generator,
		Gateway:   gateway,
		Tracker:   progress.NewTracker(backend, logger),
		Queue:     enqueue,
		Pingers:   pingers,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(ctx),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // ?wait=true runs a whole experiment inline
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

type runMode string

const (
	runModeQueued    runMode = "queued"
	runModeInProcess runMode = "in-process"
)

// chooseRunMode hands runs to the worker only when it can see the same data:
// the worker reads Postgres, so an in-memory API keeps runs to itself.
func chooseRunMode(postgres, redisUp bool) runMode {
	if postgres && redisUp {
		return runModeQueued
	}
	return runModeInProcess
}
