package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/followuplab/internal/experiment"
	"github.com/nikhilbhutani/followuplab/internal/progress"
	"github.com/nikhilbhutani/followuplab/internal/queue"
	"github.com/nikhilbhutani/followuplab/internal/store"
)

// Runner is the part of experiment.Service the worker needs.
type Runner interface {
	Run(ctx context.Context, experimentID int64, rep experiment.Reporter) (experiment.RunSummary, error)
}

type ExperimentWorker struct {
	runner  Runner
	tracker *progress.Tracker
	logger  *slog.Logger
}

func NewExperimentWorker(runner Runner, tracker *progress.Tracker, logger *slog.Logger) *ExperimentWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExperimentWorker{runner: runner, tracker: tracker, logger: logger}
}

func (w *ExperimentWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ExperimentRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	log := w.logger.With("run_id", payload.RunID, "experiment_id", payload.ExperimentID)
	log.Info("processing experiment run")

	summary, err := w.runner.Run(ctx, payload.ExperimentID, w.tracker.Reporter(payload.RunID))
	if err != nil {
		w.tracker.Fail(ctx, payload.RunID, payload.ExperimentID, err)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("run experiment: %w: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("run experiment: %w", err)
	}

	log.Info("experiment run completed",
		"total", summary.Total,
		"generated", summary.Generated,
		"failed", summary.Failed,
	)
	return nil
}
