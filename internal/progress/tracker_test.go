package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/followuplab/internal/experiment"
)

func TestTrackerLifecycle(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(NewMemoryBackend(), nil)

	_, err := tr.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownRun)

	require.NoError(t, tr.Queue(ctx, "r1", 7))
	s, err := tr.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, s.Status)
	assert.Equal(t, int64(7), s.ExperimentID)

	rep := tr.Reporter("r1")
	rep.Start(ctx, 7, 3)
	rep.Advance(ctx, experiment.Progress{ExperimentID: 7, Done: 2, Total: 3, Generated: 1, Failed: 1})

	s, err = tr.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, s.Status)
	assert.Equal(t, 2, s.Done)
	assert.Equal(t, 3, s.Total)

	rep.Finish(ctx, experiment.RunSummary{ExperimentID: 7, Total: 3, Generated: 2, Failed: 1})
	s, err = tr.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, Snapshot{
		RunID:        "r1",
		ExperimentID: 7,
		Status:       StatusCompleted,
		Done:         3,
		Total:        3,
		Generated:    2,
		Failed:       1,
		UpdatedAt:    s.UpdatedAt,
	}, s)
}

func TestTrackerFail(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(NewMemoryBackend(), nil)

	tr.Fail(ctx, "r2", 9, errors.New("experiment 9 not found"))

	s, err := tr.Get(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, "experiment 9 not found", s.Error)
}

func TestMemoryBackendExpiry(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	require.NoError(t, b.Set(ctx, "k", Snapshot{RunID: "k"}, time.Minute))

	var s Snapshot
	require.NoError(t, b.Get(ctx, "k", &s))
	assert.Equal(t, "k", s.RunID)

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, b.Get(ctx, "k", &s), errMiss)
}

type failingBackend struct{ MemoryBackend }

func (failingBackend) Set(context.Context, string, any, time.Duration) error {
	return errors.New("redis down")
}

func TestReporterIgnoresWriteFailures(t *testing.T) {
	tr := NewTracker(&failingBackend{}, nil)
	rep := tr.Reporter("r3")

	assert.NotPanics(t, func() {
		rep.Start(context.Background(), 1, 1)
		rep.Finish(context.Background(), experiment.RunSummary{ExperimentID: 1, Total: 1})
	})
	assert.Error(t, tr.Queue(context.Background(), "r3", 1))
}
