package models

import "time"

const (
	DefaultModelID     = "gemini-2.0-flash"
	DefaultTemperature = 0.7
)

// Prompt is the shared context of a set of questions. Content doubles as the
// system instruction for follow-up generation.
type Prompt struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Content     string    `json:"content" db:"content"`
	ModelID     string    `json:"model_id" db:"model_id"`
	Temperature float64   `json:"temperature" db:"temperature"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Question struct {
	ID        int64     `json:"id" db:"id"`
	PromptID  int64     `json:"prompt_id" db:"prompt_id"`
	Text      string    `json:"text" db:"question_text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
