// Package catalog validates and stores the authoring records: prompts,
// questions, users, answers and experiments.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nikhilbhutani/followuplab/internal/models"
	"github.com/nikhilbhutani/followuplab/internal/store"
)

var ErrInvalid = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// PromptDraft is a prompt as submitted. A nil Temperature takes the default;
// an explicit zero is kept.
type PromptDraft struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	ModelID     string   `json:"model_id"`
	Temperature *float64 `json:"temperature"`
}

func (d PromptDraft) resolve() (store.PromptInput, error) {
	in := store.PromptInput{
		Title:       strings.TrimSpace(d.Title),
		Content:     strings.TrimSpace(d.Content),
		ModelID:     strings.TrimSpace(d.ModelID),
		Temperature: models.DefaultTemperature,
	}
	if in.Title == "" {
		return in, invalid("title is required")
	}
	if in.Content == "" {
		return in, invalid("content is required")
	}
	if in.ModelID == "" {
		in.ModelID = models.DefaultModelID
	}
	if d.Temperature != nil {
		in.Temperature = *d.Temperature
	}
	if in.Temperature < 0 || in.Temperature > 1 {
		return in, invalid("temperature must be within [0,1], got %v", in.Temperature)
	}
	return in, nil
}

type Catalog struct {
	store  store.Store
	logger *slog.Logger
}

func New(s store.Store, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{store: s, logger: logger}
}

// Prompts

func (c *Catalog) CreatePrompt(ctx context.Context, d PromptDraft) (*models.Prompt, error) {
	in, err := d.resolve()
	if err != nil {
		return nil, err
	}
	return c.store.CreatePrompt(ctx, in)
}

func (c *Catalog) UpdatePrompt(ctx context.Context, id int64, d PromptDraft) (*models.Prompt, error) {
	in, err := d.resolve()
	if err != nil {
		return nil, err
	}
	return c.store.UpdatePrompt(ctx, id, in)
}

// Questions

func (c *Catalog) CreateQuestion(ctx context.Context, promptID int64, text string) (*models.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("question text is required")
	}
	if _, err := c.store.GetPrompt(ctx, promptID); err != nil {
		return nil, err
	}
	return c.store.CreateQuestion(ctx, promptID, text)
}

func (c *Catalog) UpdateQuestion(ctx context.Context, id int64, text string) (*models.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("question text is required")
	}
	return c.store.UpdateQuestion(ctx, id, text)
}

// ListQuestions lists a prompt's questions, failing for an unknown prompt.
func (c *Catalog) ListQuestions(ctx context.Context, promptID int64) ([]models.Question, error) {
	if _, err := c.store.GetPrompt(ctx, promptID); err != nil {
		return nil, err
	}
	return c.store.ListQuestionsByPrompt(ctx, promptID)
}

// Users

var DefaultUsers = []struct {
	Name  string
	Email string
}{
	{"Alice Johnson", "alice@example.com"},
	{"Bob Smith", "bob@example.com"},
	{"Carol Davis", "carol@example.com"},
	{"David Wilson", "david@example.com"},
	{"Eva Brown", "eva@example.com"},
}

func (c *Catalog) CreateUser(ctx context.Context, name, email string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name is required")
	}
	var emailPtr *string
	if email = strings.TrimSpace(email); email != "" {
		if !strings.Contains(email, "@") {
			return nil, invalid("email %q is not an address", email)
		}
		emailPtr = &email
	}
	return c.store.CreateUser(ctx, name, emailPtr)
}

// SeedDefaultUsers creates the default users whose names are not taken yet.
func (c *Catalog) SeedDefaultUsers(ctx context.Context) (int, error) {
	existing, err := c.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	taken := make(map[string]bool, len(existing))
	for _, u := range existing {
		taken[u.Name] = true
	}

	created := 0
	for _, du := range DefaultUsers {
		if taken[du.Name] {
			continue
		}
		if _, err := c.CreateUser(ctx, du.Name, du.Email); err != nil {
			return created, fmt.Errorf("create user %q: %w", du.Name, err)
		}
		created++
	}
	c.logger.Info("default users seeded", "created", created)
	return created, nil
}

// ClearUsers deletes every user along with their answers and follow-ups.
func (c *Catalog) ClearUsers(ctx context.Context) (int, error) {
	users, err := c.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	deleted := 0
	for _, u := range users {
		if err := c.store.DeleteUser(ctx, u.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return deleted, fmt.Errorf("delete user %d: %w", u.ID, err)
		}
		deleted++
	}
	c.logger.Info("users cleared", "deleted", deleted)
	return deleted, nil
}

// Answers

// SaveAnswer upserts the answer of a user to a question. Blank answers are
// rejected so that a pair is either answered or absent.
func (c *Catalog) SaveAnswer(ctx context.Context, questionID, userID int64, text string) (*models.Answer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("answer text is required")
	}
	if _, err := c.store.GetQuestion(ctx, questionID); err != nil {
		return nil, err
	}
	if _, err := c.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return c.store.CreateOrUpdateAnswer(ctx, questionID, userID, text)
}

// Experiments

func (c *Catalog) CreateExperiment(ctx context.Context, promptID int64, name, description string) (*models.Experiment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("experiment name is required")
	}
	if _, err := c.store.GetPrompt(ctx, promptID); err != nil {
		return nil, err
	}
	return c.store.CreateExperiment(ctx, name, strings.TrimSpace(description), promptID)
}

// ListExperiments lists a prompt's experiments, failing for an unknown prompt.
func (c *Catalog) ListExperiments(ctx context.Context, promptID int64) ([]models.Experiment, error) {
	if _, err := c.store.GetPrompt(ctx, promptID); err != nil {
		return nil, err
	}
	return c.store.ListExperimentsByPrompt(ctx, promptID)
}
