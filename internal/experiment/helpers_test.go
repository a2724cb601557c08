package experiment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/followuplab/internal/followup"
	"github.com/nikhilbhutani/followuplab/internal/models"
	"github.com/nikhilbhutani/followuplab/internal/store"
)

// countingStore records case writes and can fail clears for chosen answers.
type countingStore struct {
	*store.MemoryStore

	mu         sync.Mutex
	caseWrites int
	failClear  map[int64]bool
	failCreate map[int64]bool
}

func newCountingStore() *countingStore {
	return &countingStore{
		MemoryStore: store.NewMemoryStore(),
		failClear:   map[int64]bool{},
		failCreate:  map[int64]bool{},
	}
}

func (s *countingStore) CreateExperimentCase(ctx context.Context, experimentID, questionID, userID int64, selected bool) (*models.ExperimentCase, error) {
	s.mu.Lock()
	s.caseWrites++
	s.mu.Unlock()
	return s.MemoryStore.CreateExperimentCase(ctx, experimentID, questionID, userID, selected)
}

func (s *countingStore) UpdateExperimentCaseSelection(ctx context.Context, caseID int64, selected bool) error {
	s.mu.Lock()
	s.caseWrites++
	s.mu.Unlock()
	return s.MemoryStore.UpdateExperimentCaseSelection(ctx, caseID, selected)
}

func (s *countingStore) ClearFollowupsByAnswer(ctx context.Context, answerID int64) error {
	if s.failClear[answerID] {
		return errors.New("connection reset")
	}
	return s.MemoryStore.ClearFollowupsByAnswer(ctx, answerID)
}

func (s *countingStore) CreateFollowup(ctx context.Context, answerID int64, text string, reason *string) (*models.FollowupQuestion, error) {
	if s.failCreate[answerID] {
		return nil, errors.New("insert follow-up: connection reset")
	}
	return s.MemoryStore.CreateFollowup(ctx, answerID, text, reason)
}

func (s *countingStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caseWrites
}

// scriptedGenerator answers every request with a follow-up about the answer
// text, except answers listed in empty.
type scriptedGenerator struct {
	mu    sync.Mutex
	empty map[string]bool
	calls []followup.Request
}

func (g *scriptedGenerator) GenerateFollowup(_ context.Context, req followup.Request) followup.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.empty[req.Answer] {
		return followup.Result{}
	}
	return followup.Result{Question: "Why " + req.Answer + "?", Reason: "dig deeper"}
}

type recordingReporter struct {
	started  int
	total    int
	advances []Progress
	finished *RunSummary
}

func (r *recordingReporter) Start(_ context.Context, _ int64, total int) {
	r.started++
	r.total = total
}

func (r *recordingReporter) Advance(_ context.Context, p Progress) {
	r.advances = append(r.advances, p)
}

func (r *recordingReporter) Finish(_ context.Context, s RunSummary) {
	r.finished = &s
}

type fixture struct {
	ctx    context.Context
	store  *countingStore
	prompt *models.Prompt
	q1, q2 *models.Question
	alice  *models.User
	bob    *models.User
	exp    *models.Experiment
}

// newFixture builds prompt P with questions Q1 and Q2, users Alice and Bob and
// one experiment. Nobody has answered yet.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := newCountingStore()

	p, err := s.CreatePrompt(ctx, store.PromptInput{
		Title:       "Onboarding",
		Content:     "You are a curious interviewer.",
		ModelID:     "gemini-2.0-flash",
		Temperature: 0.2,
	})
	require.NoError(t, err)
	q1, err := s.CreateQuestion(ctx, p.ID, "What did you build?")
	require.NoError(t, err)
	q2, err := s.CreateQuestion(ctx, p.ID, "What was hard?")
	require.NoError(t, err)
	alice, err := s.CreateUser(ctx, "Alice Johnson", nil)
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "Bob Smith", nil)
	require.NoError(t, err)
	exp, err := s.CreateExperiment(ctx, "baseline", "", p.ID)
	require.NoError(t, err)

	return &fixture{ctx: ctx, store: s, prompt: p, q1: q1, q2: q2, alice: alice, bob: bob, exp: exp}
}

func (f *fixture) answer(t *testing.T, q *models.Question, u *models.User, text string) *models.Answer {
	t.Helper()
	a, err := f.store.CreateOrUpdateAnswer(f.ctx, q.ID, u.ID, text)
	require.NoError(t, err)
	return a
}

func (f *fixture) followups(t *testing.T, a *models.Answer) []models.FollowupQuestion {
	t.Helper()
	fs, err := f.store.ListFollowupsByAnswer(f.ctx, a.ID)
	require.NoError(t, err)
	return fs
}

func storeInput(title string) store.PromptInput {
	return store.PromptInput{Title: title, Content: "c", ModelID: models.DefaultModelID, Temperature: models.DefaultTemperature}
}
