package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Failover tries each backend in order, falling back to the next one when
// the current fails.
type Failover struct {
	backends []Streamer
	logger   *slog.Logger
}

// NewFailover creates a failover chain. At least one backend is required.
func NewFailover(backends []Streamer, logger *slog.Logger) *Failover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Failover{backends: backends, logger: logger}
}

func (f *Failover) Name() string {
	names := make([]string, len(f.backends))
	for i, b := range f.backends {
		names[i] = b.Name()
	}
	return "failover(" + strings.Join(names, "→") + ")"
}

// Generate returns the first successful reply.
func (f *Failover) Generate(ctx context.Context, req Request) (string, error) {
	if len(f.backends) == 0 {
		return "", ErrNoProvider
	}
	var lastErr error
	for i, b := range f.backends {
		out, err := b.Generate(ctx, req)
		if err == nil {
			if i > 0 {
				f.logger.Info("failover: used fallback provider", "provider", b.Name(), "attempt", i+1)
			}
			return out, nil
		}
		lastErr = err
		f.logger.Warn("failover: provider failed, trying next", "provider", b.Name(), "attempt", i+1, "err", err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("all providers in failover chain failed: %w", lastErr)
}

// Stream falls back only while nothing has been delivered. Once a backend has
// emitted a chunk its error is returned as is, since the caller has already
// shown partial text.
func (f *Failover) Stream(ctx context.Context, req Request, onChunk func(string)) error {
	if len(f.backends) == 0 {
		return ErrNoProvider
	}
	var lastErr error
	for i, b := range f.backends {
		emitted := false
		err := b.Stream(ctx, req, func(s string) {
			emitted = true
			onChunk(s)
		})
		if err == nil {
			if i > 0 {
				f.logger.Info("failover: used fallback provider", "provider", b.Name(), "attempt", i+1)
			}
			return nil
		}
		if emitted {
			return err
		}
		lastErr = err
		f.logger.Warn("failover: provider failed before streaming, trying next", "provider", b.Name(), "attempt", i+1, "err", err)
		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("all providers in failover chain failed: %w", lastErr)
}
