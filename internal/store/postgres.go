package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/followuplab/internal/models"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	promptColumns     = `id, title, content, model_id, temperature, created_at, updated_at`
	questionColumns   = `id, prompt_id, question_text, created_at`
	userColumns       = `id, name, email, created_at`
	answerColumns     = `id, question_id, user_id, answer_text, created_at`
	followupColumns   = `id, answer_id, followup_text, reason, created_at`
	experimentColumns = `id, name, description, prompt_id, created_at`
	caseColumns       = `id, experiment_id, question_id, user_id, is_selected, created_at`
)

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func scanPrompt(row pgx.Row) (*models.Prompt, error) {
	var p models.Prompt
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.ModelID, &p.Temperature, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanQuestion(row pgx.Row) (*models.Question, error) {
	var q models.Question
	if err := row.Scan(&q.ID, &q.PromptID, &q.Text, &q.CreatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func scanAnswer(row pgx.Row) (*models.Answer, error) {
	var a models.Answer
	if err := row.Scan(&a.ID, &a.QuestionID, &a.UserID, &a.Text, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanFollowup(row pgx.Row) (*models.FollowupQuestion, error) {
	var f models.FollowupQuestion
	if err := row.Scan(&f.ID, &f.AnswerID, &f.Text, &f.Reason, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func scanExperiment(row pgx.Row) (*models.Experiment, error) {
	var e models.Experiment
	if err := row.Scan(&e.ID, &e.Name, &e.Description, &e.PromptID, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanCase(row pgx.Row) (*models.ExperimentCase, error) {
	var c models.ExperimentCase
	if err := row.Scan(&c.ID, &c.ExperimentID, &c.QuestionID, &c.UserID, &c.IsSelected, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// collect runs a query and scans every row with scan.
func collect[T any](ctx context.Context, db *pgxpool.Pool, scan func(pgx.Row) (*T, error), sql string, args ...any) ([]T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// Prompts

func (s *PostgresStore) CreatePrompt(ctx context.Context, in PromptInput) (*models.Prompt, error) {
	p, err := scanPrompt(s.db.QueryRow(ctx,
		`INSERT INTO prompts (title, content, model_id, temperature)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+promptColumns,
		in.Title, in.Content, in.ModelID, in.Temperature,
	))
	if err != nil {
		return nil, fmt.Errorf("insert prompt: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetPrompt(ctx context.Context, id int64) (*models.Prompt, error) {
	p, err := scanPrompt(s.db.QueryRow(ctx, `SELECT `+promptColumns+` FROM prompts WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get prompt %d: %w", id, notFound(err))
	}
	return p, nil
}

func (s *PostgresStore) ListPrompts(ctx context.Context) ([]models.Prompt, error) {
	prompts, err := collect(ctx, s.db, scanPrompt, `SELECT `+promptColumns+` FROM prompts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	return prompts, nil
}

func (s *PostgresStore) UpdatePrompt(ctx context.Context, id int64, in PromptInput) (*models.Prompt, error) {
	p, err := scanPrompt(s.db.QueryRow(ctx,
		`UPDATE prompts SET title = $2, content = $3, model_id = $4, temperature = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+promptColumns,
		id, in.Title, in.Content, in.ModelID, in.Temperature,
	))
	if err != nil {
		return nil, fmt.Errorf("update prompt %d: %w", id, notFound(err))
	}
	return p, nil
}

func (s *PostgresStore) DeletePrompt(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	stmts := []string{
		`DELETE FROM followup_questions WHERE answer_id IN (
			SELECT a.id FROM answers a JOIN questions q ON q.id = a.question_id WHERE q.prompt_id = $1)`,
		`DELETE FROM answers WHERE question_id IN (SELECT id FROM questions WHERE prompt_id = $1)`,
		`DELETE FROM experiment_cases WHERE experiment_id IN (SELECT id FROM experiments WHERE prompt_id = $1)`,
		`DELETE FROM experiments WHERE prompt_id = $1`,
		`DELETE FROM questions WHERE prompt_id = $1`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete prompt %d dependents: %w", id, err)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM prompts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete prompt %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete prompt %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Questions

func (s *PostgresStore) CreateQuestion(ctx context.Context, promptID int64, text string) (*models.Question, error) {
	q, err := scanQuestion(s.db.QueryRow(ctx,
		`INSERT INTO questions (prompt_id, question_text) VALUES ($1, $2) RETURNING `+questionColumns,
		promptID, text,
	))
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	q, err := scanQuestion(s.db.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get question %d: %w", id, notFound(err))
	}
	return q, nil
}

func (s *PostgresStore) ListQuestionsByPrompt(ctx context.Context, promptID int64) ([]models.Question, error) {
	questions, err := collect(ctx, s.db, scanQuestion,
		`SELECT `+questionColumns+` FROM questions WHERE prompt_id = $1 ORDER BY created_at, id`, promptID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

func (s *PostgresStore) UpdateQuestion(ctx context.Context, id int64, text string) (*models.Question, error) {
	q, err := scanQuestion(s.db.QueryRow(ctx,
		`UPDATE questions SET question_text = $2 WHERE id = $1 RETURNING `+questionColumns, id, text))
	if err != nil {
		return nil, fmt.Errorf("update question %d: %w", id, notFound(err))
	}
	return q, nil
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM followup_questions WHERE answer_id IN (SELECT id FROM answers WHERE question_id = $1)`, id); err != nil {
		return fmt.Errorf("delete question %d follow-ups: %w", id, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM answers WHERE question_id = $1`, id); err != nil {
		return fmt.Errorf("delete question %d answers: %w", id, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete question %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Users

func (s *PostgresStore) CreateUser(ctx context.Context, name string, email *string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING `+userColumns, name, email))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, notFound(err))
	}
	return u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := collect(ctx, s.db, scanUser, `SELECT `+userColumns+` FROM users ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM followup_questions WHERE answer_id IN (SELECT id FROM answers WHERE user_id = $1)`, id); err != nil {
		return fmt.Errorf("delete user %d follow-ups: %w", id, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM answers WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("delete user %d answers: %w", id, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete user %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Answers

func (s *PostgresStore) CreateOrUpdateAnswer(ctx context.Context, questionID, userID int64, text string) (*models.Answer, error) {
	a, err := scanAnswer(s.db.QueryRow(ctx,
		`INSERT INTO answers (question_id, user_id, answer_text) VALUES ($1, $2, $3)
		 ON CONFLICT (question_id, user_id) DO UPDATE SET answer_text = EXCLUDED.answer_text
		 RETURNING `+answerColumns,
		questionID, userID, text,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert answer: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListAnswersByQuestion(ctx context.Context, questionID int64) ([]models.Answer, error) {
	answers, err := collect(ctx, s.db, scanAnswer,
		`SELECT `+answerColumns+` FROM answers WHERE question_id = $1 ORDER BY id`, questionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return answers, nil
}

func (s *PostgresStore) GetAnswerByQuestionAndUser(ctx context.Context, questionID, userID int64) (*models.Answer, error) {
	a, err := scanAnswer(s.db.QueryRow(ctx,
		`SELECT `+answerColumns+` FROM answers WHERE question_id = $1 AND user_id = $2`, questionID, userID))
	if err != nil {
		return nil, fmt.Errorf("get answer: %w", notFound(err))
	}
	return a, nil
}

func (s *PostgresStore) ListAnswersByPrompt(ctx context.Context, promptID int64) ([]models.Answer, error) {
	answers, err := collect(ctx, s.db, scanAnswer,
		`SELECT a.id, a.question_id, a.user_id, a.answer_text, a.created_at
		 FROM answers a JOIN questions q ON q.id = a.question_id
		 WHERE q.prompt_id = $1 ORDER BY a.id`, promptID)
	if err != nil {
		return nil, fmt.Errorf("list prompt answers: %w", err)
	}
	return answers, nil
}

// Follow-ups

func (s *PostgresStore) CreateFollowup(ctx context.Context, answerID int64, text string, reason *string) (*models.FollowupQuestion, error) {
	f, err := scanFollowup(s.db.QueryRow(ctx,
		`INSERT INTO followup_questions (answer_id, followup_text, reason) VALUES ($1, $2, $3)
		 RETURNING `+followupColumns,
		answerID, text, reason,
	))
	if err != nil {
		return nil, fmt.Errorf("insert follow-up: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) ListFollowupsByAnswer(ctx context.Context, answerID int64) ([]models.FollowupQuestion, error) {
	followups, err := collect(ctx, s.db, scanFollowup,
		`SELECT `+followupColumns+` FROM followup_questions WHERE answer_id = $1 ORDER BY created_at, id`, answerID)
	if err != nil {
		return nil, fmt.Errorf("list follow-ups: %w", err)
	}
	return followups, nil
}

func (s *PostgresStore) ClearFollowupsByAnswer(ctx context.Context, answerID int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM followup_questions WHERE answer_id = $1`, answerID); err != nil {
		return fmt.Errorf("clear follow-ups for answer %d: %w", answerID, err)
	}
	return nil
}

// Experiments

func (s *PostgresStore) CreateExperiment(ctx context.Context, name, description string, promptID int64) (*models.Experiment, error) {
	e, err := scanExperiment(s.db.QueryRow(ctx,
		`INSERT INTO experiments (name, description, prompt_id) VALUES ($1, $2, $3) RETURNING `+experimentColumns,
		name, description, promptID,
	))
	if err != nil {
		return nil, fmt.Errorf("insert experiment: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) GetExperiment(ctx context.Context, id int64) (*models.Experiment, error) {
	e, err := scanExperiment(s.db.QueryRow(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get experiment %d: %w", id, notFound(err))
	}
	return e, nil
}

func (s *PostgresStore) ListExperiments(ctx context.Context) ([]models.Experiment, error) {
	experiments, err := collect(ctx, s.db, scanExperiment,
		`SELECT `+experimentColumns+` FROM experiments ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	return experiments, nil
}

func (s *PostgresStore) ListExperimentsByPrompt(ctx context.Context, promptID int64) ([]models.Experiment, error) {
	experiments, err := collect(ctx, s.db, scanExperiment,
		`SELECT `+experimentColumns+` FROM experiments WHERE prompt_id = $1 ORDER BY created_at DESC, id DESC`, promptID)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	return experiments, nil
}

func (s *PostgresStore) DeleteExperiment(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM experiment_cases WHERE experiment_id = $1`, id); err != nil {
		return fmt.Errorf("delete experiment %d cases: %w", id, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM experiments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete experiment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete experiment %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Experiment cases

func (s *PostgresStore) CreateExperimentCase(ctx context.Context, experimentID, questionID, userID int64, selected bool) (*models.ExperimentCase, error) {
	c, err := scanCase(s.db.QueryRow(ctx,
		`INSERT INTO experiment_cases (experiment_id, question_id, user_id, is_selected)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+caseColumns,
		experimentID, questionID, userID, selected,
	))
	if err != nil {
		return nil, fmt.Errorf("insert experiment case: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListExperimentCases(ctx context.Context, experimentID int64) ([]models.ExperimentCase, error) {
	cases, err := collect(ctx, s.db, scanCase,
		`SELECT `+caseColumns+` FROM experiment_cases WHERE experiment_id = $1 ORDER BY id`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("list experiment cases: %w", err)
	}
	return cases, nil
}

func (s *PostgresStore) UpdateExperimentCaseSelection(ctx context.Context, caseID int64, selected bool) error {
	tag, err := s.db.Exec(ctx, `UPDATE experiment_cases SET is_selected = $2 WHERE id = $1`, caseID, selected)
	if err != nil {
		return fmt.Errorf("update experiment case %d: %w", caseID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update experiment case %d: %w", caseID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListCaseResults(ctx context.Context, experimentID int64, selectedOnly bool) ([]models.CaseResult, error) {
	// Only the lowest-id row of a duplicated pair counts as the case.
	var sb strings.Builder
	sb.WriteString(`SELECT c.id, c.experiment_id, c.question_id, c.user_id, c.is_selected, c.created_at,
		       q.id, q.prompt_id, q.question_text, q.created_at,
		       u.id, u.name, u.email, u.created_at,
		       a.id, a.question_id, a.user_id, a.answer_text, a.created_at
		FROM experiment_cases c
		JOIN questions q ON q.id = c.question_id
		JOIN users u ON u.id = c.user_id
		JOIN answers a ON a.question_id = c.question_id AND a.user_id = c.user_id
		WHERE c.experiment_id = $1 AND btrim(a.answer_text) <> ''
		  AND c.id = (SELECT min(d.id) FROM experiment_cases d
		              WHERE d.experiment_id = c.experiment_id AND d.question_id = c.question_id AND d.user_id = c.user_id)`)
	if selectedOnly {
		sb.WriteString(` AND c.is_selected`)
	}
	sb.WriteString(` ORDER BY c.id`)

	rows, err := s.db.Query(ctx, sb.String(), experimentID)
	if err != nil {
		return nil, fmt.Errorf("list case results: %w", err)
	}
	defer rows.Close()

	var results []models.CaseResult
	for rows.Next() {
		var r models.CaseResult
		if err := rows.Scan(
			&r.Case.ID, &r.Case.ExperimentID, &r.Case.QuestionID, &r.Case.UserID, &r.Case.IsSelected, &r.Case.CreatedAt,
			&r.Question.ID, &r.Question.PromptID, &r.Question.Text, &r.Question.CreatedAt,
			&r.User.ID, &r.User.Name, &r.User.Email, &r.User.CreatedAt,
			&r.Answer.ID, &r.Answer.QuestionID, &r.Answer.UserID, &r.Answer.Text, &r.Answer.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan case result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list case results: %w", err)
	}
	rows.Close()

	for i := range results {
		followups, err := s.ListFollowupsByAnswer(ctx, results[i].Answer.ID)
		if err != nil {
			return nil, err
		}
		if followups == nil {
			followups = []models.FollowupQuestion{}
		}
		results[i].Followups = followups
	}
	return results, nil
}
