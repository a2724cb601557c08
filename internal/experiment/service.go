// Package experiment selects the cases of an experiment, runs follow-up
// generation over them and aggregates the outcome.
package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nikhilbhutani/followuplab/internal/store"
)

type Service struct {
	store    store.Store
	selector *Selector
	runner   *Runner
	logger   *slog.Logger
}

func NewService(s store.Store, gen Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    s,
		selector: NewSelector(s, logger),
		runner:   NewRunner(s, gen, logger),
		logger:   logger,
	}
}

// Cases returns the selection grid after storing defaults for pairs seen for
// the first time.
func (s *Service) Cases(ctx context.Context, experimentID int64) (Grid, error) {
	if _, err := s.selector.Reconcile(ctx, experimentID); err != nil {
		return Grid{}, err
	}
	return s.selector.Grid(ctx, experimentID)
}

func (s *Service) Toggle(ctx context.Context, experimentID, questionID, userID int64, selected bool) (bool, error) {
	return s.selector.Toggle(ctx, experimentID, questionID, userID, selected)
}

// Run reconciles default selections and then runs the experiment. Errors are
// limited to loading the experiment and its prompt; case failures only show
// in the summary. A started run ignores cancellation of ctx: each case clears
// its old follow-ups before generating, so stopping between the two would
// leave the answer with none.
func (s *Service) Run(ctx context.Context, experimentID int64, rep Reporter) (RunSummary, error) {
	ctx = context.WithoutCancel(ctx)

	exp, err := s.store.GetExperiment(ctx, experimentID)
	if err != nil {
		return RunSummary{}, fmt.Errorf("get experiment: %w", err)
	}
	prompt, err := s.store.GetPrompt(ctx, exp.PromptID)
	if err != nil {
		return RunSummary{}, fmt.Errorf("get prompt: %w", err)
	}

	if _, err := s.selector.Reconcile(ctx, experimentID); err != nil {
		s.logger.Warn("reconcile default selections", "experiment_id", experimentID, "error", err)
	}

	return s.runner.Run(ctx, *exp, *prompt, rep), nil
}

func (s *Service) Results(ctx context.Context, experimentID int64) (Report, error) {
	if _, err := s.store.GetExperiment(ctx, experimentID); err != nil {
		return Report{}, fmt.Errorf("get experiment: %w", err)
	}
	cases, err := s.store.ListCaseResults(ctx, experimentID, false)
	if err != nil {
		return Report{}, fmt.Errorf("list case results: %w", err)
	}
	return Aggregate(cases), nil
}
