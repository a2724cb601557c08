package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAnswerUpsert(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	p, err := s.CreatePrompt(ctx, PromptInput{Title: "t", Content: "c", ModelID: "gemini-2.0-flash", Temperature: 0.7})
	require.NoError(t, err)
	q, err := s.CreateQuestion(ctx, p.ID, "How was your week?")
	require.NoError(t, err)
	u, err := s.CreateUser(ctx, "Alice", nil)
	require.NoError(t, err)

	first, err := s.CreateOrUpdateAnswer(ctx, q.ID, u.ID, "busy")
	require.NoError(t, err)
	second, err := s.CreateOrUpdateAnswer(ctx, q.ID, u.ID, "quiet, actually")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	answers, err := s.ListAnswersByQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "quiet, actually", answers[0].Text)
}

func TestMemoryStoreDeletePromptCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	p, _ := s.CreatePrompt(ctx, PromptInput{Title: "t", Content: "c"})
	q, _ := s.CreateQuestion(ctx, p.ID, "q")
	u, _ := s.CreateUser(ctx, "Bob", nil)
	a, _ := s.CreateOrUpdateAnswer(ctx, q.ID, u.ID, "a")
	_, err := s.CreateFollowup(ctx, a.ID, "why?", nil)
	require.NoError(t, err)
	e, _ := s.CreateExperiment(ctx, "exp", "", p.ID)
	_, err = s.CreateExperimentCase(ctx, e.ID, q.ID, u.ID, true)
	require.NoError(t, err)

	require.NoError(t, s.DeletePrompt(ctx, p.ID))

	_, err = s.GetQuestion(ctx, q.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.GetAnswerByQuestionAndUser(ctx, q.ID, u.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	followups, _ := s.ListFollowupsByAnswer(ctx, a.ID)
	assert.Empty(t, followups)
	_, err = s.GetExperiment(ctx, e.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	// Users are independent of prompts.
	_, err = s.GetUser(ctx, u.ID)
	assert.NoError(t, err)
}

func TestMemoryStoreListCaseResults(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	p, _ := s.CreatePrompt(ctx, PromptInput{Title: "t", Content: "c"})
	q, _ := s.CreateQuestion(ctx, p.ID, "q")
	alice, _ := s.CreateUser(ctx, "Alice", nil)
	bob, _ := s.CreateUser(ctx, "Bob", nil)
	carol, _ := s.CreateUser(ctx, "Carol", nil)
	_, _ = s.CreateOrUpdateAnswer(ctx, q.ID, alice.ID, "yes")
	_, _ = s.CreateOrUpdateAnswer(ctx, q.ID, bob.ID, "   ")
	_, _ = s.CreateOrUpdateAnswer(ctx, q.ID, carol.ID, "no")
	e, _ := s.CreateExperiment(ctx, "exp", "", p.ID)

	_, _ = s.CreateExperimentCase(ctx, e.ID, q.ID, alice.ID, true)
	_, _ = s.CreateExperimentCase(ctx, e.ID, q.ID, alice.ID, true) // duplicate row
	_, _ = s.CreateExperimentCase(ctx, e.ID, q.ID, bob.ID, true)
	_, _ = s.CreateExperimentCase(ctx, e.ID, q.ID, carol.ID, false)

	selected, err := s.ListCaseResults(ctx, e.ID, true)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, alice.ID, selected[0].User.ID)

	all, err := s.ListCaseResults(ctx, e.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, carol.ID, all[1].User.ID)
}

func TestMemoryStoreListUsersOrderedByName(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, _ = s.CreateUser(ctx, "Zed", nil)
	_, _ = s.CreateUser(ctx, "Amy", nil)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Amy", users[0].Name)
}
