// Package followup asks a language model for one follow-up question about a
// user's answer and turns the reply into a structured result.
package followup

import (
	"context"
	"log/slog"
	"time"

	"github.com/nikhilbhutani/followuplab/internal/llm"
	"github.com/nikhilbhutani/followuplab/internal/models"
)

const defaultMaxOutputTokens = 1000

// Request carries one generation. Temperature zero is sent as zero.
type Request struct {
	SystemInstruction string
	Question          string
	Answer            string
	ModelID           string
	Temperature       float64
}

// Result is the parsed follow-up. The zero value means nothing was generated.
type Result struct {
	Question string `json:"question,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func (r Result) Empty() bool { return r.Question == "" }

// ReasonPtr returns nil for a blank reason, matching the nullable column.
func (r Result) ReasonPtr() *string {
	if r.Reason == "" {
		return nil
	}
	reason := r.Reason
	return &reason
}

type Config struct {
	DefaultModel    string
	MaxOutputTokens int
}

type Generator struct {
	gateway llm.Gateway
	cfg     Config
	logger  *slog.Logger
}

func NewGenerator(gateway llm.Gateway, cfg Config, logger *slog.Logger) *Generator {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = models.DefaultModelID
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultMaxOutputTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{gateway: gateway, cfg: cfg, logger: logger}
}

// GenerateFollowup never fails: gateway errors, missing providers and
// unparseable replies are logged and reported as an empty Result.
func (g *Generator) GenerateFollowup(ctx context.Context, req Request) Result {
	model := req.ModelID
	if model == "" {
		model = g.cfg.DefaultModel
	}
	log := g.logger.With("model", model)

	if g.gateway == nil {
		log.Warn("no LLM gateway configured, skipping generation")
		generationsTotal.WithLabelValues(model, "error").Inc()
		return Result{}
	}

	content, err := buildContent(req.Question, req.Answer)
	if err != nil {
		log.Warn("build generation prompt", "error", err)
		generationsTotal.WithLabelValues(model, "error").Inc()
		return Result{}
	}

	messages := make([]llm.Message, 0, 2)
	if req.SystemInstruction != "" {
		messages = append(messages, llm.Message{Role: "system", Content: req.SystemInstruction})
	}
	messages = append(messages, llm.Message{Role: "user", Content: content})

	start := time.Now()
	resp, err := g.gateway.Chat(ctx, llm.ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   g.cfg.MaxOutputTokens,
	})
	generationDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if err != nil {
		log.Warn("follow-up generation failed", "error", err)
		generationsTotal.WithLabelValues(model, "error").Inc()
		return Result{}
	}
	generationCostUSD.WithLabelValues(model).Add(resp.CostUSD)

	res := Parse(resp.Content)
	if res.Empty() {
		log.Warn("model reply carried no follow-up", "reply_len", len(resp.Content))
		generationsTotal.WithLabelValues(model, "empty").Inc()
		return Result{}
	}

	generationsTotal.WithLabelValues(model, "success").Inc()
	log.Debug("follow-up generated", "provider", resp.Provider, "latency_ms", resp.LatencyMs)
	return res
}
