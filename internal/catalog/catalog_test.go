package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/followuplab/internal/models"
	"github.com/nikhilbhutani/followuplab/internal/store"
)

func ptr[T any](v T) *T { return &v }

func TestCreatePrompt(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemoryStore(), nil)

	tests := []struct {
		name    string
		draft   PromptDraft
		wantErr bool
		model   string
		temp    float64
	}{
		{"defaults", PromptDraft{Title: "T", Content: "C"}, false, models.DefaultModelID, models.DefaultTemperature},
		{"explicit zero temperature", PromptDraft{Title: "T", Content: "C", Temperature: ptr(0.0)}, false, models.DefaultModelID, 0},
		{"custom model", PromptDraft{Title: "T", Content: "C", ModelID: "gpt-4o-mini", Temperature: ptr(1.0)}, false, "gpt-4o-mini", 1},
		{"blank title", PromptDraft{Title: " ", Content: "C"}, true, "", 0},
		{"blank content", PromptDraft{Title: "T"}, true, "", 0},
		{"temperature too high", PromptDraft{Title: "T", Content: "C", Temperature: ptr(1.5)}, true, "", 0},
		{"negative temperature", PromptDraft{Title: "T", Content: "C", Temperature: ptr(-0.1)}, true, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := c.CreatePrompt(ctx, tt.draft)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.model, p.ModelID)
			assert.Equal(t, tt.temp, p.Temperature)
		})
	}
}

func TestQuestionsRequireKnownPrompt(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemoryStore(), nil)

	_, err := c.CreateQuestion(ctx, 99, "Why?")
	assert.ErrorIs(t, err, store.ErrNotFound)

	p, err := c.CreatePrompt(ctx, PromptDraft{Title: "T", Content: "C"})
	require.NoError(t, err)
	_, err = c.CreateQuestion(ctx, p.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalid)

	q, err := c.CreateQuestion(ctx, p.ID, "  Why?  ")
	require.NoError(t, err)
	assert.Equal(t, "Why?", q.Text)

	qs, err := c.ListQuestions(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, qs, 1)
}

func TestSaveAnswerUpserts(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	c := New(s, nil)

	p, err := c.CreatePrompt(ctx, PromptDraft{Title: "T", Content: "C"})
	require.NoError(t, err)
	q, err := c.CreateQuestion(ctx, p.ID, "Why?")
	require.NoError(t, err)
	u, err := c.CreateUser(ctx, "Alice Johnson", "")
	require.NoError(t, err)
	assert.Nil(t, u.Email)

	first, err := c.SaveAnswer(ctx, q.ID, u.ID, "Because")
	require.NoError(t, err)
	second, err := c.SaveAnswer(ctx, q.ID, u.ID, "Because I said so")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	answers, err := s.ListAnswersByQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "Because I said so", answers[0].Text)

	_, err = c.SaveAnswer(ctx, q.ID, u.ID, " \t")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = c.SaveAnswer(ctx, q.ID, 404, "x")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateUserValidatesEmail(t *testing.T) {
	c := New(store.NewMemoryStore(), nil)

	_, err := c.CreateUser(context.Background(), "Bob", "not-an-address")
	assert.ErrorIs(t, err, ErrInvalid)

	u, err := c.CreateUser(context.Background(), "Bob", " bob@example.com ")
	require.NoError(t, err)
	require.NotNil(t, u.Email)
	assert.Equal(t, "bob@example.com", *u.Email)
}

func TestSeedAndClearUsers(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	c := New(s, nil)

	_, err := c.CreateUser(ctx, "Carol Davis", "")
	require.NoError(t, err)

	created, err := c.SeedDefaultUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, created)

	created, err = c.SeedDefaultUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, created)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 5)
	assert.Equal(t, "Alice Johnson", users[0].Name)

	deleted, err := c.ClearUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, deleted)

	users, err = s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestCreateExperiment(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemoryStore(), nil)

	_, err := c.CreateExperiment(ctx, 1, "baseline", "")
	assert.ErrorIs(t, err, store.ErrNotFound)

	p, err := c.CreatePrompt(ctx, PromptDraft{Title: "T", Content: "C"})
	require.NoError(t, err)
	_, err = c.CreateExperiment(ctx, p.ID, "", "")
	assert.ErrorIs(t, err, ErrInvalid)

	e, err := c.CreateExperiment(ctx, p.ID, "baseline", " first pass ")
	require.NoError(t, err)
	assert.Equal(t, "first pass", e.Description)

	exps, err := c.ListExperiments(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, exps, 1)
}
