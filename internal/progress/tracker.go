// Package progress records how far experiment runs have got so that callers
// polling from another process can follow them.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikhilbhutani/followuplab/internal/experiment"
)

var ErrUnknownRun = errors.New("unknown run")

const snapshotTTL = 24 * time.Hour

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Snapshot struct {
	RunID        string    `json:"run_id"`
	ExperimentID int64     `json:"experiment_id"`
	Status       Status    `json:"status"`
	Done         int       `json:"done"`
	Total        int       `json:"total"`
	Generated    int       `json:"generated"`
	Failed       int       `json:"failed"`
	Error        string    `json:"error,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Tracker struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

func NewTracker(b Backend, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{backend: b, logger: logger, now: time.Now}
}

func runKey(runID string) string { return "run:" + runID }

func (t *Tracker) Get(ctx context.Context, runID string) (Snapshot, error) {
	var s Snapshot
	err := t.backend.Get(ctx, runKey(runID), &s)
	if errors.Is(err, errMiss) {
		return Snapshot{}, fmt.Errorf("run %s: %w", runID, ErrUnknownRun)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get run snapshot: %w", err)
	}
	return s, nil
}

// Queue records a run that has been handed to the worker.
func (t *Tracker) Queue(ctx context.Context, runID string, experimentID int64) error {
	return t.put(ctx, Snapshot{RunID: runID, ExperimentID: experimentID, Status: StatusQueued})
}

// Fail marks a run that could not start.
func (t *Tracker) Fail(ctx context.Context, runID string, experimentID int64, cause error) {
	t.write(ctx, Snapshot{RunID: runID, ExperimentID: experimentID, Status: StatusFailed, Error: cause.Error()})
}

// Reporter returns an experiment.Reporter that records progress under runID.
func (t *Tracker) Reporter(runID string) experiment.Reporter {
	return &runReporter{tracker: t, runID: runID}
}

func (t *Tracker) put(ctx context.Context, s Snapshot) error {
	s.UpdatedAt = t.now()
	if err := t.backend.Set(ctx, runKey(s.RunID), s, snapshotTTL); err != nil {
		return fmt.Errorf("put run snapshot: %w", err)
	}
	return nil
}

// write is put for observers: a failed write is logged and dropped.
func (t *Tracker) write(ctx context.Context, s Snapshot) {
	if err := t.put(ctx, s); err != nil {
		t.logger.Warn("run progress not recorded", "run_id", s.RunID, "error", err)
	}
}

type runReporter struct {
	tracker *Tracker
	runID   string
}

func (r *runReporter) Start(ctx context.Context, experimentID int64, total int) {
	r.tracker.write(ctx, Snapshot{
		RunID:        r.runID,
		ExperimentID: experimentID,
		Status:       StatusRunning,
		Total:        total,
	})
}

func (r *runReporter) Advance(ctx context.Context, p experiment.Progress) {
	r.tracker.write(ctx, Snapshot{
		RunID:        r.runID,
		ExperimentID: p.ExperimentID,
		Status:       StatusRunning,
		Done:         p.Done,
		Total:        p.Total,
		Generated:    p.Generated,
		Failed:       p.Failed,
	})
}

func (r *runReporter) Finish(ctx context.Context, s experiment.RunSummary) {
	r.tracker.write(ctx, Snapshot{
		RunID:        r.runID,
		ExperimentID: s.ExperimentID,
		Status:       StatusCompleted,
		Done:         s.Total,
		Total:        s.Total,
		Generated:    s.Generated,
		Failed:       s.Failed,
	})
}
