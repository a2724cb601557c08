package models

import "time"

type Experiment struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	PromptID    int64     `json:"prompt_id" db:"prompt_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ExperimentCase records whether a (question, user) pair is included in the
// next run of an experiment. A row may outlive the answer it was created for.
type ExperimentCase struct {
	ID           int64     `json:"id" db:"id"`
	ExperimentID int64     `json:"experiment_id" db:"experiment_id"`
	QuestionID   int64     `json:"question_id" db:"question_id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	IsSelected   bool      `json:"is_selected" db:"is_selected"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (c ExperimentCase) Key() PairKey {
	return PairKey{QuestionID: c.QuestionID, UserID: c.UserID}
}

// PairKey identifies a (question, user) pair.
type PairKey struct {
	QuestionID int64
	UserID     int64
}

// CaseResult is an experiment case joined with its question, answer, user and
// the follow-ups generated for the answer.
type CaseResult struct {
	Case      ExperimentCase     `json:"case"`
	Question  Question           `json:"question"`
	Answer    Answer             `json:"answer"`
	User      User               `json:"user"`
	Followups []FollowupQuestion `json:"followups"`
}
