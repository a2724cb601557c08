package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/nikhilbhutani/followuplab/internal/config"
)

var ErrProviderNotConfigured = errors.New("provider not configured")

type gateway struct {
	providers        map[string]Provider
	defaultProvider  string
	fallbackProvider string
	maxRetries       int
	backoff          time.Duration
	logger           *slog.Logger
}

// NewGateway registers a provider for every credential present in cfg.
// A provider without credentials is absent; requests routed to it fail with
// ErrProviderNotConfigured.
func NewGateway(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) Gateway {
	if logger == nil {
		logger = slog.Default()
	}

	var providers []Provider
	if cfg.GeminiKey != "" {
		p, err := NewGeminiProvider(ctx, cfg.GeminiKey)
		if err != nil {
			logger.Warn("gemini provider unavailable", "error", err)
		} else {
			providers = append(providers, p)
		}
	}
	if cfg.OpenAIKey != "" {
		providers = append(providers, NewOpenAIProvider(cfg.OpenAIKey))
	}
	if cfg.AnthropicKey != "" {
		providers = append(providers, NewAnthropicProvider(cfg.AnthropicKey))
	}
	if cfg.OllamaURL != "" {
		p, err := NewOllamaProvider(cfg.OllamaURL)
		if err != nil {
			logger.Warn("ollama provider unavailable", "error", err)
		} else {
			providers = append(providers, p)
		}
	}

	g := NewGatewayWithProviders(cfg.DefaultProvider, cfg.FallbackProvider, cfg.MaxRetries, providers...)
	g.logger = logger
	return g
}

// NewGatewayWithProviders builds a gateway over explicit providers.
func NewGatewayWithProviders(defaultProvider, fallbackProvider string, maxRetries int, providers ...Provider) *gateway {
	g := &gateway{
		providers:        make(map[string]Provider, len(providers)),
		defaultProvider:  defaultProvider,
		fallbackProvider: fallbackProvider,
		maxRetries:       maxRetries,
		backoff:          500 * time.Millisecond,
		logger:           slog.Default(),
	}
	for _, p := range providers {
		g.providers[p.Name()] = p
	}
	return g
}

func (g *gateway) Provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotConfigured, name)
	}
	return p, nil
}

// ProviderForModel maps a model id to the provider that serves it.
func ProviderForModel(model, fallback string) string {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "gemini-"):
		return "gemini"
	case strings.HasPrefix(m, "gpt-"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return "openai"
	case strings.HasPrefix(m, "claude-"):
		return "anthropic"
	default:
		return fallback
	}
}

func (g *gateway) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	providerName := req.Provider
	if providerName == "" {
		providerName = ProviderForModel(req.Model, g.defaultProvider)
	}

	resp, err := g.chatWithRetry(ctx, providerName, req)
	if err != nil && g.fallbackProvider != "" && g.fallbackProvider != providerName {
		g.logger.Warn("primary provider failed, trying fallback",
			"primary", providerName,
			"fallback", g.fallbackProvider,
			"error", err,
		)
		return g.chatWithRetry(ctx, g.fallbackProvider, req)
	}
	return resp, err
}

func (g *gateway) chatWithRetry(ctx context.Context, providerName string, req ChatRequest) (*ChatResponse, error) {
	p, err := g.Provider(providerName)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * g.backoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			g.logger.Debug("retrying LLM call", "provider", providerName, "attempt", attempt)
		}

		resp, err := p.ChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all retries exhausted for %s: %w", providerName, lastErr)
}

func (g *gateway) ListModels() []ModelInfo {
	var models []ModelInfo
	for _, p := range g.providers {
		for _, m := range p.Models() {
			models = append(models, ModelInfo{Provider: p.Name(), Model: m})
		}
	}
	sort.Slice(models, func(i, j int) bool {
		if models[i].Provider != models[j].Provider {
			return models[i].Provider < models[j].Provider
		}
		return models[i].Model < models[j].Model
	})
	return models
}
