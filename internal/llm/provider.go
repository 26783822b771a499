package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Provider string // openai, groq, ollama or gemini
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
	Retry    RetryConfig
}

// NewProvider builds the raw provider client for cfg.Provider.
func NewProvider(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case "openai", "groq", "ollama":
		return NewOpenAIClient(cfg.Provider, cfg.APIKey, cfg.Model, cfg.BaseURL, &http.Client{})
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, nil)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// New returns the provider wrapped in the standard middleware stack:
// usage accounting, then cache, then retry, then a per-attempt timeout.
// cache and recorder may be nil.
func New(ctx context.Context, cfg Config, cache Cache, recorder UsageRecorder, logger *zap.Logger) (Client, error) {
	provider, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mws := []Middleware{WithUsage(recorder, logger)}
	if cache != nil {
		mws = append(mws, WithCache(cache, logger))
	}
	mws = append(mws,
		WithRetry(NewRetryPolicy(cfg.Retry, nil), logger),
		WithTimeout(cfg.Timeout),
	)
	return Chain(provider, mws...), nil
}
