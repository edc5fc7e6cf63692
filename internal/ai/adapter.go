package ai

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Adapter bounds a Provider call by a timeout and hides its failures.
type Adapter struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// NewAdapter wraps p. A non-positive timeout defaults to 10s.
func NewAdapter(p Provider, timeout time.Duration, logger *slog.Logger) *Adapter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{provider: p, timeout: timeout, logger: logger}
}

// Provider returns the backend name, or "" for a nil adapter.
func (a *Adapter) Provider() string {
	if a == nil || a.provider == nil {
		return ""
	}
	return a.provider.Name()
}

type completion struct {
	text string
	err  error
}

// Complete returns the trimmed completion or "" on any failure, including
// exceeding the timeout. It returns within the timeout even if the
// provider ignores cancellation.
func (a *Adapter) Complete(ctx context.Context, prompt string) string {
	if a == nil || a.provider == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan completion, 1)
	go func() {
		text, err := a.provider.Generate(ctx, prompt)
		done <- completion{text: text, err: err}
	}()

	var c completion
	select {
	case c = <-done:
	case <-ctx.Done():
		c = completion{err: unavailable(a.provider.Name(), ctx.Err())}
	}

	elapsed := time.Since(start).Milliseconds()
	if c.err != nil {
		a.logger.Warn("ai.generate.error", "provider", a.provider.Name(), "error", c.err, "elapsed_ms", elapsed)
		return ""
	}
	text := strings.TrimSpace(c.text)
	if text == "" {
		a.logger.Warn("ai.generate.empty", "provider", a.provider.Name(), "elapsed_ms", elapsed)
		return ""
	}
	a.logger.Info("ai.generate.ok", "provider", a.provider.Name(), "chars", len(text), "elapsed_ms", elapsed)
	return text
}
