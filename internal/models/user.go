package models

import (
	"strings"
	"time"
)

type User struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     *string   `json:"email,omitempty" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Answer is a user's reply to a question. There is at most one per
// (question, user) pair.
type Answer struct {
	ID         int64     `json:"id" db:"id"`
	QuestionID int64     `json:"question_id" db:"question_id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	Text       string    `json:"text" db:"answer_text"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// HasText reports whether the answer carries anything besides whitespace.
func (a *Answer) HasText() bool {
	return a != nil && strings.TrimSpace(a.Text) != ""
}

type FollowupQuestion struct {
	ID        int64     `json:"id" db:"id"`
	AnswerID  int64     `json:"answer_id" db:"answer_id"`
	Text      string    `json:"text" db:"followup_text"`
	Reason    *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
