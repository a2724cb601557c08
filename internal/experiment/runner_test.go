package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerEmptySelection(t *testing.T) {
	f := newFixture(t)
	gen := &scriptedGenerator{}
	rep := &recordingReporter{}

	summary := NewRunner(f.store, gen, nil).Run(f.ctx, *f.exp, *f.prompt, rep)

	assert.Zero(t, summary.Total)
	assert.Empty(t, gen.calls)
	assert.Equal(t, 1, rep.started)
	assert.Empty(t, rep.advances)
	require.NotNil(t, rep.finished)
	assert.Zero(t, rep.finished.Total)
}

func TestRunnerIsolatesEmptyGenerations(t *testing.T) {
	f := newFixture(t)
	a1 := f.answer(t, f.q1, f.alice, "first")
	a2 := f.answer(t, f.q1, f.bob, "second")
	a3 := f.answer(t, f.q2, f.alice, "third")
	_, err := NewSelector(f.store, nil).Reconcile(f.ctx, f.exp.ID)
	require.NoError(t, err)

	gen := &scriptedGenerator{empty: map[string]bool{"second": true}}
	rep := &recordingReporter{}
	summary := NewRunner(f.store, gen, nil).Run(f.ctx, *f.exp, *f.prompt, rep)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Generated)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, gen.calls, 3)

	assert.Len(t, f.followups(t, a1), 1)
	assert.Empty(t, f.followups(t, a2))
	assert.Len(t, f.followups(t, a3), 1)

	require.Len(t, rep.advances, 3)
	for i, p := range rep.advances {
		assert.Equal(t, i+1, p.Done)
		assert.Equal(t, 3, p.Total)
	}
	assert.Equal(t, 3, rep.total)
}

func TestRunnerPassesPromptSettings(t *testing.T) {
	f := newFixture(t)
	f.answer(t, f.q1, f.alice, "A compiler")
	_, err := NewSelector(f.store, nil).Reconcile(f.ctx, f.exp.ID)
	require.NoError(t, err)

	gen := &scriptedGenerator{}
	NewRunner(f.store, gen, nil).Run(f.ctx, *f.exp, *f.prompt, nil)

	require.Len(t, gen.calls, 1)
	req := gen.calls[0]
	assert.Equal(t, f.prompt.Content, req.SystemInstruction)
	assert.Equal(t, f.q1.Text, req.Question)
	assert.Equal(t, "A compiler", req.Answer)
	assert.Equal(t, f.prompt.ModelID, req.ModelID)
	assert.Equal(t, f.prompt.Temperature, req.Temperature)
}

func TestRunnerRerunReplacesFollowups(t *testing.T) {
	f := newFixture(t)
	a := f.answer(t, f.q1, f.alice, "A compiler")
	_, err := NewSelector(f.store, nil).Reconcile(f.ctx, f.exp.ID)
	require.NoError(t, err)
	runner := NewRunner(f.store, &scriptedGenerator{}, nil)

	for i := 0; i < 2; i++ {
		summary := runner.Run(f.ctx, *f.exp, *f.prompt, nil)
		assert.Equal(t, 1, summary.Generated)
		fs := f.followups(t, a)
		require.Len(t, fs, 1)
		assert.Equal(t, "Why A compiler?", fs[0].Text)
		require.NotNil(t, fs[0].Reason)
		assert.Equal(t, "dig deeper", *fs[0].Reason)
	}
}

func TestRunnerLeavesDeselectedCasesAlone(t *testing.T) {
	f := newFixture(t)
	kept := f.answer(t, f.q1, f.alice, "keep")
	dropped := f.answer(t, f.q1, f.bob, "drop")
	sel := NewSelector(f.store, nil)
	_, err := sel.Reconcile(f.ctx, f.exp.ID)
	require.NoError(t, err)

	runner := NewRunner(f.store, &scriptedGenerator{}, nil)
	runner.Run(f.ctx, *f.exp, *f.prompt, nil)
	before := f.followups(t, dropped)
	require.Len(t, before, 1)

	_, err = sel.Toggle(f.ctx, f.exp.ID, f.q1.ID, f.bob.ID, false)
	require.NoError(t, err)

	gen := &scriptedGenerator{}
	summary := runner.run(gen, f)
	assert.Equal(t, 1, summary.Total)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, "keep", gen.calls[0].Answer)

	assert.Equal(t, before, f.followups(t, dropped))
	assert.Len(t, f.followups(t, kept), 1)
}

func TestRunnerSkipsCaseWhenClearFails(t *testing.T) {
	f := newFixture(t)
	a1 := f.answer(t, f.q1, f.alice, "first")
	a2 := f.answer(t, f.q2, f.alice, "second")
	_, err := NewSelector(f.store, nil).Reconcile(f.ctx, f.exp.ID)
	require.NoError(t, err)

	runner := NewRunner(f.store, &scriptedGenerator{}, nil)
	runner.Run(f.ctx, *f.exp, *f.prompt, nil)

	f.store.failClear[a1.ID] = true
	gen := &scriptedGenerator{}
	summary := runner.run(gen, f)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Generated)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, "second", gen.calls[0].Answer)
	assert.Len(t, f.followups(t, a1), 1)
	assert.Len(t, f.followups(t, a2), 1)
}

func TestRunnerContinuesAfterSaveFailure(t *testing.T) {
	f := newFixture(t)
	a1 := f.answer(t, f.q1, f.alice, "first")
	a2 := f.answer(t, f.q1, f.bob, "second")
	_, err := NewSelector(f.store, nil).Reconcile(f.ctx, f.exp.ID)
	require.NoError(t, err)
	f.store.failCreate[a1.ID] = true

	summary := NewRunner(f.store, &scriptedGenerator{}, nil).Run(f.ctx, *f.exp, *f.prompt, nil)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Generated)
	assert.Empty(t, f.followups(t, a1))
	assert.Len(t, f.followups(t, a2), 1)
}

func TestRunnerSkipsCaseWhoseAnswerWasBlanked(t *testing.T) {
	f := newFixture(t)
	f.answer(t, f.q1, f.alice, "A compiler")
	_, err := NewSelector(f.store, nil).Reconcile(f.ctx, f.exp.ID)
	require.NoError(t, err)
	f.answer(t, f.q1, f.alice, "   ")

	gen := &scriptedGenerator{}
	summary := NewRunner(f.store, gen, nil).Run(f.ctx, *f.exp, *f.prompt, nil)

	assert.Zero(t, summary.Total)
	assert.Empty(t, gen.calls)
}

// run swaps the generator and runs the fixture's experiment again.
func (r *Runner) run(gen Generator, f *fixture) RunSummary {
	r.generator = gen
	return r.Run(f.ctx, *f.exp, *f.prompt, nil)
}
