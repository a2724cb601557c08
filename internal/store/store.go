package store

import (
	"context"
	"errors"

	"github.com/nikhilbhutani/followuplab/internal/models"
)

var ErrNotFound = errors.New("not found")

type PromptInput struct {
	Title       string
	Content     string
	ModelID     string
	Temperature float64
}

// Store is the persistence gateway. Implementations build typed records at
// the boundary and report missing rows with ErrNotFound.
type Store interface {
	CreatePrompt(ctx context.Context, in PromptInput) (*models.Prompt, error)
	GetPrompt(ctx context.Context, id int64) (*models.Prompt, error)
	ListPrompts(ctx context.Context) ([]models.Prompt, error)
	UpdatePrompt(ctx context.Context, id int64, in PromptInput) (*models.Prompt, error)
	// DeletePrompt removes the prompt with its questions, their answers and
	// follow-ups, and its experiments with their cases.
	DeletePrompt(ctx context.Context, id int64) error

	CreateQuestion(ctx context.Context, promptID int64, text string) (*models.Question, error)
	GetQuestion(ctx context.Context, id int64) (*models.Question, error)
	ListQuestionsByPrompt(ctx context.Context, promptID int64) ([]models.Question, error)
	UpdateQuestion(ctx context.Context, id int64, text string) (*models.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error

	CreateUser(ctx context.Context, name string, email *string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id int64) error

	// CreateOrUpdateAnswer upserts on (questionID, userID).
	CreateOrUpdateAnswer(ctx context.Context, questionID, userID int64, text string) (*models.Answer, error)
	ListAnswersByQuestion(ctx context.Context, questionID int64) ([]models.Answer, error)
	GetAnswerByQuestionAndUser(ctx context.Context, questionID, userID int64) (*models.Answer, error)
	ListAnswersByPrompt(ctx context.Context, promptID int64) ([]models.Answer, error)

	CreateFollowup(ctx context.Context, answerID int64, text string, reason *string) (*models.FollowupQuestion, error)
	ListFollowupsByAnswer(ctx context.Context, answerID int64) ([]models.FollowupQuestion, error)
	ClearFollowupsByAnswer(ctx context.Context, answerID int64) error

	CreateExperiment(ctx context.Context, name, description string, promptID int64) (*models.Experiment, error)
	GetExperiment(ctx context.Context, id int64) (*models.Experiment, error)
	ListExperiments(ctx context.Context) ([]models.Experiment, error)
	ListExperimentsByPrompt(ctx context.Context, promptID int64) ([]models.Experiment, error)
	DeleteExperiment(ctx context.Context, id int64) error

	CreateExperimentCase(ctx context.Context, experimentID, questionID, userID int64, selected bool) (*models.ExperimentCase, error)
	ListExperimentCases(ctx context.Context, experimentID int64) ([]models.ExperimentCase, error)
	UpdateExperimentCaseSelection(ctx context.Context, caseID int64, selected bool) error
	// ListCaseResults joins each case of the experiment with its question,
	// user, answer and follow-ups. Cases whose question, user or answer is
	// gone, or whose answer is blank, are left out.
	ListCaseResults(ctx context.Context, experimentID int64, selectedOnly bool) ([]models.CaseResult, error)
}
