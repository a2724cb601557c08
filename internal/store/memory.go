package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nikhilbhutani/followuplab/internal/models"
)

// MemoryStore keeps every record in process memory. It backs the API when no
// database is configured and serves as the collaborator in tests.
type MemoryStore struct {
	mu  sync.Mutex
	seq int64
	now func() time.Time

	prompts     map[int64]models.Prompt
	questions   map[int64]models.Question
	users       map[int64]models.User
	answers     map[int64]models.Answer
	followups   map[int64]models.FollowupQuestion
	experiments map[int64]models.Experiment
	cases       map[int64]models.ExperimentCase
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:         time.Now,
		prompts:     make(map[int64]models.Prompt),
		questions:   make(map[int64]models.Question),
		users:       make(map[int64]models.User),
		answers:     make(map[int64]models.Answer),
		followups:   make(map[int64]models.FollowupQuestion),
		experiments: make(map[int64]models.Experiment),
		cases:       make(map[int64]models.ExperimentCase),
	}
}

func (s *MemoryStore) nextID() int64 {
	s.seq++
	return s.seq
}

// sortedByID returns the map values ordered by id, filtered by keep.
func sortedByID[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func reversed[T any](in []T) []T {
	for i, j := 0, len(in)-1; i < j; i, j = i+1, j-1 {
		in[i], in[j] = in[j], in[i]
	}
	return in
}

// Prompts

func (s *MemoryStore) CreatePrompt(_ context.Context, in PromptInput) (*models.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := models.Prompt{
		ID:          s.nextID(),
		Title:       in.Title,
		Content:     in.Content,
		ModelID:     in.ModelID,
		Temperature: in.Temperature,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.prompts[p.ID] = p
	return &p, nil
}

func (s *MemoryStore) GetPrompt(_ context.Context, id int64) (*models.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.prompts[id]
	if !ok {
		return nil, fmt.Errorf("get prompt %d: %w", id, ErrNotFound)
	}
	return &p, nil
}

func (s *MemoryStore) ListPrompts(_ context.Context) ([]models.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reversed(sortedByID(s.prompts, nil)), nil
}

func (s *MemoryStore) UpdatePrompt(_ context.Context, id int64, in PromptInput) (*models.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.prompts[id]
	if !ok {
		return nil, fmt.Errorf("update prompt %d: %w", id, ErrNotFound)
	}
	p.Title = in.Title
	p.Content = in.Content
	p.ModelID = in.ModelID
	p.Temperature = in.Temperature
	p.UpdatedAt = s.now()
	s.prompts[id] = p
	return &p, nil
}

func (s *MemoryStore) DeletePrompt(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prompts[id]; !ok {
		return fmt.Errorf("delete prompt %d: %w", id, ErrNotFound)
	}
	for qid, q := range s.questions {
		if q.PromptID == id {
			s.deleteQuestionLocked(qid)
		}
	}
	for eid, e := range s.experiments {
		if e.PromptID == id {
			s.deleteExperimentLocked(eid)
		}
	}
	delete(s.prompts, id)
	return nil
}

// Questions

func (s *MemoryStore) CreateQuestion(_ context.Context, promptID int64, text string) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prompts[promptID]; !ok {
		return nil, fmt.Errorf("insert question: prompt %d: %w", promptID, ErrNotFound)
	}
	q := models.Question{ID: s.nextID(), PromptID: promptID, Text: text, CreatedAt: s.now()}
	s.questions[q.ID] = q
	return &q, nil
}

func (s *MemoryStore) GetQuestion(_ context.Context, id int64) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return nil, fmt.Errorf("get question %d: %w", id, ErrNotFound)
	}
	return &q, nil
}

func (s *MemoryStore) ListQuestionsByPrompt(_ context.Context, promptID int64) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.questions, func(q models.Question) bool { return q.PromptID == promptID }), nil
}

func (s *MemoryStore) UpdateQuestion(_ context.Context, id int64, text string) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return nil, fmt.Errorf("update question %d: %w", id, ErrNotFound)
	}
	q.Text = text
	s.questions[id] = q
	return &q, nil
}

func (s *MemoryStore) DeleteQuestion(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return fmt.Errorf("delete question %d: %w", id, ErrNotFound)
	}
	s.deleteQuestionLocked(id)
	return nil
}

func (s *MemoryStore) deleteQuestionLocked(id int64) {
	for aid, a := range s.answers {
		if a.QuestionID == id {
			s.deleteAnswerLocked(aid)
		}
	}
	delete(s.questions, id)
}

func (s *MemoryStore) deleteAnswerLocked(id int64) {
	for fid, f := range s.followups {
		if f.AnswerID == id {
			delete(s.followups, fid)
		}
	}
	delete(s.answers, id)
}

// Users

func (s *MemoryStore) CreateUser(_ context.Context, name string, email *string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := models.User{ID: s.nextID(), Name: name, Email: email, CreatedAt: s.now()}
	s.users[u.ID] = u
	return &u, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("get user %d: %w", id, ErrNotFound)
	}
	return &u, nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := sortedByID(s.users, nil)
	sort.SliceStable(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("delete user %d: %w", id, ErrNotFound)
	}
	for aid, a := range s.answers {
		if a.UserID == id {
			s.deleteAnswerLocked(aid)
		}
	}
	delete(s.users, id)
	return nil
}

// Answers

func (s *MemoryStore) CreateOrUpdateAnswer(_ context.Context, questionID, userID int64, text string) (*models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[questionID]; !ok {
		return nil, fmt.Errorf("upsert answer: question %d: %w", questionID, ErrNotFound)
	}
	if _, ok := s.users[userID]; !ok {
		return nil, fmt.Errorf("upsert answer: user %d: %w", userID, ErrNotFound)
	}

	for id, a := range s.answers {
		if a.QuestionID == questionID && a.UserID == userID {
			a.Text = text
			s.answers[id] = a
			return &a, nil
		}
	}
	a := models.Answer{ID: s.nextID(), QuestionID: questionID, UserID: userID, Text: text, CreatedAt: s.now()}
	s.answers[a.ID] = a
	return &a, nil
}

func (s *MemoryStore) ListAnswersByQuestion(_ context.Context, questionID int64) ([]models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.answers, func(a models.Answer) bool { return a.QuestionID == questionID }), nil
}

func (s *MemoryStore) GetAnswerByQuestionAndUser(_ context.Context, questionID, userID int64) (*models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.answerLocked(questionID, userID)
	if !ok {
		return nil, fmt.Errorf("get answer: %w", ErrNotFound)
	}
	return &a, nil
}

func (s *MemoryStore) answerLocked(questionID, userID int64) (models.Answer, bool) {
	for _, a := range s.answers {
		if a.QuestionID == questionID && a.UserID == userID {
			return a, true
		}
	}
	return models.Answer{}, false
}

func (s *MemoryStore) ListAnswersByPrompt(_ context.Context, promptID int64) ([]models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.answers, func(a models.Answer) bool {
		q, ok := s.questions[a.QuestionID]
		return ok && q.PromptID == promptID
	}), nil
}

// Follow-ups

func (s *MemoryStore) CreateFollowup(_ context.Context, answerID int64, text string, reason *string) (*models.FollowupQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.answers[answerID]; !ok {
		return nil, fmt.Errorf("insert follow-up: answer %d: %w", answerID, ErrNotFound)
	}
	f := models.FollowupQuestion{ID: s.nextID(), AnswerID: answerID, Text: text, Reason: reason, CreatedAt: s.now()}
	s.followups[f.ID] = f
	return &f, nil
}

func (s *MemoryStore) ListFollowupsByAnswer(_ context.Context, answerID int64) ([]models.FollowupQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.followupsLocked(answerID), nil
}

func (s *MemoryStore) followupsLocked(answerID int64) []models.FollowupQuestion {
	return sortedByID(s.followups, func(f models.FollowupQuestion) bool { return f.AnswerID == answerID })
}

func (s *MemoryStore) ClearFollowupsByAnswer(_ context.Context, answerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, f := range s.followups {
		if f.AnswerID == answerID {
			delete(s.followups, id)
		}
	}
	return nil
}

// Experiments

func (s *MemoryStore) CreateExperiment(_ context.Context, name, description string, promptID int64) (*models.Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prompts[promptID]; !ok {
		return nil, fmt.Errorf("insert experiment: prompt %d: %w", promptID, ErrNotFound)
	}
	e := models.Experiment{ID: s.nextID(), Name: name, Description: description, PromptID: promptID, CreatedAt: s.now()}
	s.experiments[e.ID] = e
	return &e, nil
}

func (s *MemoryStore) GetExperiment(_ context.Context, id int64) (*models.Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.experiments[id]
	if !ok {
		return nil, fmt.Errorf("get experiment %d: %w", id, ErrNotFound)
	}
	return &e, nil
}

func (s *MemoryStore) ListExperiments(_ context.Context) ([]models.Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reversed(sortedByID(s.experiments, nil)), nil
}

func (s *MemoryStore) ListExperimentsByPrompt(_ context.Context, promptID int64) ([]models.Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reversed(sortedByID(s.experiments, func(e models.Experiment) bool { return e.PromptID == promptID })), nil
}

func (s *MemoryStore) DeleteExperiment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.experiments[id]; !ok {
		return fmt.Errorf("delete experiment %d: %w", id, ErrNotFound)
	}
	s.deleteExperimentLocked(id)
	return nil
}

func (s *MemoryStore) deleteExperimentLocked(id int64) {
	for cid, c := range s.cases {
		if c.ExperimentID == id {
			delete(s.cases, cid)
		}
	}
	delete(s.experiments, id)
}

// Experiment cases

func (s *MemoryStore) CreateExperimentCase(_ context.Context, experimentID, questionID, userID int64, selected bool) (*models.ExperimentCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.experiments[experimentID]; !ok {
		return nil, fmt.Errorf("insert experiment case: experiment %d: %w", experimentID, ErrNotFound)
	}
	c := models.ExperimentCase{
		ID:           s.nextID(),
		ExperimentID: experimentID,
		QuestionID:   questionID,
		UserID:       userID,
		IsSelected:   selected,
		CreatedAt:    s.now(),
	}
	s.cases[c.ID] = c
	return &c, nil
}

func (s *MemoryStore) ListExperimentCases(_ context.Context, experimentID int64) ([]models.ExperimentCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.cases, func(c models.ExperimentCase) bool { return c.ExperimentID == experimentID }), nil
}

func (s *MemoryStore) UpdateExperimentCaseSelection(_ context.Context, caseID int64, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[caseID]
	if !ok {
		return fmt.Errorf("update experiment case %d: %w", caseID, ErrNotFound)
	}
	c.IsSelected = selected
	s.cases[caseID] = c
	return nil
}

func (s *MemoryStore) ListCaseResults(_ context.Context, experimentID int64, selectedOnly bool) ([]models.CaseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cases := sortedByID(s.cases, func(c models.ExperimentCase) bool { return c.ExperimentID == experimentID })
	seen := make(map[models.PairKey]bool, len(cases))

	var results []models.CaseResult
	for _, c := range cases {
		// Only the lowest-id row of a duplicated pair counts as the case.
		if seen[c.Key()] {
			continue
		}
		seen[c.Key()] = true

		if selectedOnly && !c.IsSelected {
			continue
		}
		q, ok := s.questions[c.QuestionID]
		if !ok {
			continue
		}
		u, ok := s.users[c.UserID]
		if !ok {
			continue
		}
		a, ok := s.answerLocked(c.QuestionID, c.UserID)
		if !ok || strings.TrimSpace(a.Text) == "" {
			continue
		}
		results = append(results, models.CaseResult{
			Case:      c,
			Question:  q,
			Answer:    a,
			User:      u,
			Followups: s.followupsLocked(a.ID),
		})
	}
	return results, nil
}
