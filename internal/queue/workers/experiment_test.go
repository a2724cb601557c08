package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/followuplab/internal/experiment"
	"github.com/nikhilbhutani/followuplab/internal/progress"
	"github.com/nikhilbhutani/followuplab/internal/queue"
	"github.com/nikhilbhutani/followuplab/internal/store"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, experimentID int64, rep experiment.Reporter) (experiment.RunSummary, error) {
	args := m.Called(ctx, experimentID, rep)
	summary := args.Get(0).(experiment.RunSummary)
	if err := args.Error(1); err != nil {
		return summary, err
	}
	rep.Finish(ctx, summary)
	return summary, nil
}

func task(t *testing.T, p queue.ExperimentRunPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return asynq.NewTask(queue.TypeExperimentRun, data)
}

func TestExperimentWorkerRecordsCompletion(t *testing.T) {
	ctx := context.Background()
	tracker := progress.NewTracker(progress.NewMemoryBackend(), nil)
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, int64(5), mock.Anything).
		Return(experiment.RunSummary{ExperimentID: 5, Total: 2, Generated: 2}, nil)

	w := NewExperimentWorker(runner, tracker, nil)
	require.NoError(t, w.ProcessTask(ctx, task(t, queue.ExperimentRunPayload{RunID: "abc", ExperimentID: 5})))

	runner.AssertExpectations(t)
	s, err := tracker.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, progress.StatusCompleted, s.Status)
	assert.Equal(t, 2, s.Generated)
}

func TestExperimentWorkerSkipsRetryForUnknownExperiment(t *testing.T) {
	ctx := context.Background()
	tracker := progress.NewTracker(progress.NewMemoryBackend(), nil)
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, int64(9), mock.Anything).
		Return(experiment.RunSummary{}, store.ErrNotFound)

	w := NewExperimentWorker(runner, tracker, nil)
	err := w.ProcessTask(ctx, task(t, queue.ExperimentRunPayload{RunID: "def", ExperimentID: 9}))

	assert.ErrorIs(t, err, asynq.SkipRetry)
	s, getErr := tracker.Get(ctx, "def")
	require.NoError(t, getErr)
	assert.Equal(t, progress.StatusFailed, s.Status)
}

func TestExperimentWorkerBadPayload(t *testing.T) {
	w := NewExperimentWorker(&mockRunner{}, progress.NewTracker(progress.NewMemoryBackend(), nil), nil)

	err := w.ProcessTask(context.Background(), asynq.NewTask(queue.TypeExperimentRun, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.False(t, errors.Is(err, store.ErrNotFound))
}
