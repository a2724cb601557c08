package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nikhilbhutani/followuplab/internal/models"
	"github.com/nikhilbhutani/followuplab/internal/store"
)

// ErrNotOffered is returned when a pair has no usable answer and so cannot be
// selected.
var ErrNotOffered = errors.New("pair has no answer to select")

// Cell is one (question, user) pair of the selection grid.
type Cell struct {
	QuestionID int64 `json:"question_id"`
	UserID     int64 `json:"user_id"`
	Offered    bool  `json:"offered"`
	Selected   bool  `json:"selected"`
	// CaseID is zero while the pair has no stored case row.
	CaseID int64 `json:"case_id,omitempty"`
}

// Grid holds one row per question in question order, each with one cell per
// user in user order.
type Grid struct {
	ExperimentID int64             `json:"experiment_id"`
	Questions    []models.Question `json:"questions"`
	Users        []models.User     `json:"users"`
	Rows         [][]Cell          `json:"rows"`
}

// Offered returns the selectable cells row by row.
func (g Grid) Offered() []Cell {
	var out []Cell
	for _, row := range g.Rows {
		for _, c := range row {
			if c.Offered {
				out = append(out, c)
			}
		}
	}
	return out
}

// BuildGrid decides the state of every pair. Pairs without a non-blank answer
// are not offered and their case rows are ignored. Offered pairs take the
// stored selection, or true when no row exists yet.
func BuildGrid(questions []models.Question, users []models.User, answers map[models.PairKey]models.Answer, cases map[models.PairKey]models.ExperimentCase) Grid {
	g := Grid{
		Questions: questions,
		Users:     users,
		Rows:      make([][]Cell, len(questions)),
	}
	for i, q := range questions {
		row := make([]Cell, len(users))
		for j, u := range users {
			key := models.PairKey{QuestionID: q.ID, UserID: u.ID}
			cell := Cell{QuestionID: q.ID, UserID: u.ID}

			ans, ok := answers[key]
			if ok && ans.HasText() {
				cell.Offered = true
				cell.Selected = true
				if c, ok := cases[key]; ok {
					cell.Selected = c.IsSelected
					cell.CaseID = c.ID
				}
			}
			row[j] = cell
		}
		g.Rows[i] = row
	}
	return g
}

// IndexCases keys case rows by pair. When a pair has several rows the one
// with the lowest id is kept, so duplicates never act as a second case.
func IndexCases(cases []models.ExperimentCase) map[models.PairKey]models.ExperimentCase {
	idx := make(map[models.PairKey]models.ExperimentCase, len(cases))
	for _, c := range cases {
		if prev, ok := idx[c.Key()]; ok && prev.ID < c.ID {
			continue
		}
		idx[c.Key()] = c
	}
	return idx
}

func indexAnswers(answers []models.Answer) map[models.PairKey]models.Answer {
	idx := make(map[models.PairKey]models.Answer, len(answers))
	for _, a := range answers {
		idx[models.PairKey{QuestionID: a.QuestionID, UserID: a.UserID}] = a
	}
	return idx
}

// Selector keeps experiment case rows in line with the selection grid.
type Selector struct {
	store  store.Store
	logger *slog.Logger
}

func NewSelector(s store.Store, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{store: s, logger: logger}
}

func (s *Selector) Grid(ctx context.Context, experimentID int64) (Grid, error) {
	exp, err := s.store.GetExperiment(ctx, experimentID)
	if err != nil {
		return Grid{}, fmt.Errorf("get experiment: %w", err)
	}

	questions, err := s.store.ListQuestionsByPrompt(ctx, exp.PromptID)
	if err != nil {
		return Grid{}, fmt.Errorf("list questions: %w", err)
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return Grid{}, fmt.Errorf("list users: %w", err)
	}
	answers, err := s.store.ListAnswersByPrompt(ctx, exp.PromptID)
	if err != nil {
		return Grid{}, fmt.Errorf("list answers: %w", err)
	}
	cases, err := s.store.ListExperimentCases(ctx, experimentID)
	if err != nil {
		return Grid{}, fmt.Errorf("list experiment cases: %w", err)
	}

	g := BuildGrid(questions, users, indexAnswers(answers), IndexCases(cases))
	g.ExperimentID = experimentID
	return g, nil
}

// Reconcile stores the default selection for every offered pair that has no
// case row yet and returns how many rows it created.
func (s *Selector) Reconcile(ctx context.Context, experimentID int64) (int, error) {
	g, err := s.Grid(ctx, experimentID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, c := range g.Offered() {
		if c.CaseID != 0 {
			continue
		}
		if _, err := s.store.CreateExperimentCase(ctx, experimentID, c.QuestionID, c.UserID, true); err != nil {
			return created, fmt.Errorf("create experiment case: %w", err)
		}
		created++
	}
	if created > 0 {
		s.logger.Info("materialized default selections", "experiment_id", experimentID, "created", created)
	}
	return created, nil
}

// Toggle sets the selection of one pair. It writes only when the effective
// value changes, updating the existing row or creating the first one.
func (s *Selector) Toggle(ctx context.Context, experimentID, questionID, userID int64, selected bool) (bool, error) {
	exp, err := s.store.GetExperiment(ctx, experimentID)
	if err != nil {
		return false, fmt.Errorf("get experiment: %w", err)
	}
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return false, fmt.Errorf("get question: %w", err)
	}
	if q.PromptID != exp.PromptID {
		return false, ErrNotOffered
	}

	ans, err := s.store.GetAnswerByQuestionAndUser(ctx, questionID, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return false, ErrNotOffered
	case err != nil:
		return false, fmt.Errorf("get answer: %w", err)
	case !ans.HasText():
		return false, ErrNotOffered
	}

	cases, err := s.store.ListExperimentCases(ctx, experimentID)
	if err != nil {
		return false, fmt.Errorf("list experiment cases: %w", err)
	}
	key := models.PairKey{QuestionID: questionID, UserID: userID}
	existing, ok := IndexCases(cases)[key]

	effective := true
	if ok {
		effective = existing.IsSelected
	}
	if effective == selected {
		return false, nil
	}

	if ok {
		if err := s.store.UpdateExperimentCaseSelection(ctx, existing.ID, selected); err != nil {
			return false, fmt.Errorf("update experiment case: %w", err)
		}
	} else {
		if _, err := s.store.CreateExperimentCase(ctx, experimentID, questionID, userID, selected); err != nil {
			return false, fmt.Errorf("create experiment case: %w", err)
		}
	}
	return true, nil
}
