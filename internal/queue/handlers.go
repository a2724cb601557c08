package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/followuplab/internal/config"
)

// NewServer builds the asynq server for the worker process. Concurrency 1
// keeps runs sequential within a process.
func NewServer(redisCfg config.RedisConfig, workerCfg config.WorkerConfig, logger *slog.Logger) *asynq.Server {
	concurrency := workerCfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return asynq.NewServer(RedisOpt(redisCfg), asynq.Config{
		Concurrency: concurrency,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("task failed", "type", task.Type(), "error", err)
		}),
	})
}

// NewServeMux routes experiment runs to runHandler.
func NewServeMux(runHandler asynq.Handler, logger *slog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(taskLogging(logger))
	mux.Handle(TypeExperimentRun, runHandler)
	return mux
}

func taskLogging(logger *slog.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()
			err := next.ProcessTask(ctx, t)
			logger.Info("task processed",
				"type", t.Type(),
				"duration_ms", time.Since(start).Milliseconds(),
				"ok", err == nil,
			)
			return err
		})
	}
}
