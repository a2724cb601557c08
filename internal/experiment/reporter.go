package experiment

import (
	"context"
	"log/slog"
)

// Progress is the running tally of a run after a case completes.
type Progress struct {
	ExperimentID int64
	Done         int
	Total        int
	Generated    int
	Failed       int
}

// Reporter observes a run. Implementations must not fail the run.
type Reporter interface {
	Start(ctx context.Context, experimentID int64, total int)
	Advance(ctx context.Context, p Progress)
	Finish(ctx context.Context, s RunSummary)
}

// LogReporter writes progress to a slog logger.
type LogReporter struct {
	Logger *slog.Logger
}

func (r LogReporter) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r LogReporter) Start(_ context.Context, experimentID int64, total int) {
	r.logger().Info("experiment run started", "experiment_id", experimentID, "total", total)
}

func (r LogReporter) Advance(_ context.Context, p Progress) {
	r.logger().Debug("experiment run progress",
		"experiment_id", p.ExperimentID,
		"done", p.Done,
		"total", p.Total,
	)
}

func (r LogReporter) Finish(_ context.Context, s RunSummary) {
	r.logger().Info("experiment run finished",
		"experiment_id", s.ExperimentID,
		"total", s.Total,
		"generated", s.Generated,
		"failed", s.Failed,
		"duration", s.FinishedAt.Sub(s.StartedAt),
	)
}
