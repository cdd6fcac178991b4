package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// BackendConfig selects and configures one backend.
type BackendConfig struct {
	Provider string `json:"provider"` // openai | gemini
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
	BaseURL  string `json:"baseURL,omitempty"`
}

// NewBackend builds a single backend from its config.
func NewBackend(ctx context.Context, bc BackendConfig, logger *slog.Logger) (Streamer, error) {
	switch bc.Provider {
	case "openai":
		o, err := NewOpenAI(OpenAIConfig{APIKey: bc.APIKey, BaseURL: bc.BaseURL, Model: bc.Model, Logger: logger})
		if err != nil {
			return nil, err
		}
		return o, nil
	case "gemini":
		g, err := NewGemini(ctx, GeminiConfig{APIKey: bc.APIKey, Model: bc.Model, Logger: logger})
		if err != nil {
			return nil, err
		}
		return g, nil
	case "":
		return nil, ErrNoProvider
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", bc.Provider)
	}
}

// New builds the configured chain. One backend is returned as is; more are
// wrapped in a Failover. Backends that fail to initialize are logged and
// skipped; ErrNoProvider is returned when none remain.
func New(ctx context.Context, chain []BackendConfig, logger *slog.Logger) (Streamer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var backends []Streamer
	for _, bc := range chain {
		b, err := NewBackend(ctx, bc, logger)
		if err != nil {
			logger.Warn("skipping llm backend", "provider", bc.Provider, "err", err)
			continue
		}
		backends = append(backends, b)
	}
	switch len(backends) {
	case 0:
		return nil, ErrNoProvider
	case 1:
		return backends[0], nil
	default:
		return NewFailover(backends, logger), nil
	}
}
