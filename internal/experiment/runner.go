package experiment

import (
	"context"
	"log/slog"
	"time"

	"github.com/nikhilbhutani/followuplab/internal/followup"
	"github.com/nikhilbhutani/followuplab/internal/models"
	"github.com/nikhilbhutani/followuplab/internal/store"
)

// Generator produces one follow-up for an answer. An empty Result means
// nothing usable came back.
type Generator interface {
	GenerateFollowup(ctx context.Context, req followup.Request) followup.Result
}

type RunSummary struct {
	ExperimentID int64     `json:"experiment_id"`
	Total        int       `json:"total"`
	Generated    int       `json:"generated"`
	Failed       int       `json:"failed"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Runner regenerates follow-ups for the selected cases of an experiment, one
// case at a time.
type Runner struct {
	store     store.Store
	generator Generator
	logger    *slog.Logger
	now       func() time.Time
}

func NewRunner(s store.Store, gen Generator, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: s, generator: gen, logger: logger, now: time.Now}
}

// Run processes every selected case that still has a non-blank answer. For
// each case the answer's follow-ups are cleared before a new one is
// generated, and a failing case never stops the loop. Total counts every
// processed case whatever its outcome.
func (r *Runner) Run(ctx context.Context, exp models.Experiment, prompt models.Prompt, rep Reporter) RunSummary {
	if rep == nil {
		rep = LogReporter{Logger: r.logger}
	}
	log := r.logger.With("experiment_id", exp.ID)

	summary := RunSummary{ExperimentID: exp.ID, StartedAt: r.now()}
	runsTotal.Inc()
	defer func() {
		runDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	}()

	cases, err := r.store.ListCaseResults(ctx, exp.ID, true)
	if err != nil {
		log.Error("load selected cases", "error", err)
		cases = nil
	}

	total := len(cases)
	rep.Start(ctx, exp.ID, total)

	for i, c := range cases {
		if r.processCase(ctx, log, prompt, c) {
			summary.Generated++
		} else {
			summary.Failed++
		}
		summary.Total++
		rep.Advance(ctx, Progress{
			ExperimentID: exp.ID,
			Done:         i + 1,
			Total:        total,
			Generated:    summary.Generated,
			Failed:       summary.Failed,
		})
	}

	summary.FinishedAt = r.now()
	rep.Finish(ctx, summary)
	return summary
}

func (r *Runner) processCase(ctx context.Context, log *slog.Logger, prompt models.Prompt, c models.CaseResult) bool {
	log = log.With("case_id", c.Case.ID, "answer_id", c.Answer.ID)

	if err := r.store.ClearFollowupsByAnswer(ctx, c.Answer.ID); err != nil {
		log.Error("clear follow-ups, skipping case", "error", err)
		casesTotal.WithLabelValues("clear_failed").Inc()
		return false
	}

	res := r.generator.GenerateFollowup(ctx, followup.Request{
		SystemInstruction: prompt.Content,
		Question:          c.Question.Text,
		Answer:            c.Answer.Text,
		ModelID:           prompt.ModelID,
		Temperature:       prompt.Temperature,
	})
	if res.Empty() {
		log.Warn("no follow-up generated")
		casesTotal.WithLabelValues("empty").Inc()
		return false
	}

	if _, err := r.store.CreateFollowup(ctx, c.Answer.ID, res.Question, res.ReasonPtr()); err != nil {
		log.Error("save follow-up", "error", err)
		casesTotal.WithLabelValues("save_failed").Inc()
		return false
	}
	casesTotal.WithLabelValues("generated").Inc()
	return true
}
