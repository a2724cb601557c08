package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

type OllamaProvider struct {
	client *api.Client
}

// NewOllamaProvider accepts the server URL with or without the
// OpenAI-compatible /v1 suffix.
func NewOllamaProvider(baseURL string) (*OllamaProvider, error) {
	base := strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url %q: %w", baseURL, err)
	}
	return &OllamaProvider{
		client: api.NewClient(u, &http.Client{Timeout: 5 * time.Minute}),
	}, nil
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Models() []string {
	return []string{"llama3.1", "llama3.2", "mistral", "qwen2.5"}
}

func (p *OllamaProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	msgs := make([]api.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = api.Message{Role: m.Role, Content: m.Content}
	}

	stream := false
	options := map[string]interface{}{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	var resp api.ChatResponse
	err := p.client.Chat(ctx, &api.ChatRequest{
		Model:    req.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  options,
	}, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}

	return &ChatResponse{
		Provider:     p.Name(),
		Model:        resp.Model,
		Content:      resp.Message.Content,
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
		TotalTokens:  resp.PromptEvalCount + resp.EvalCount,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}
