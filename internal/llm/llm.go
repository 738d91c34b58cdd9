// Package llm wraps the generative-text backends behind a single prompt/completion call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deusflow/cryptonews/internal/ratelimit"
)

// ErrEmptyResponse is returned when the backend answers without any text.
var ErrEmptyResponse = errors.New("empty response from generative backend")

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client is a Generator holding backend resources.
type Client interface {
	Generator
	Close() error
}

// New creates a client for the named provider.
func New(ctx context.Context, provider, model, apiKey string) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("AI not configured")
	}

	switch provider {
	case "gemini", "":
		return newGemini(ctx, model, apiKey)
	case "openai":
		return newOpenAI(model, apiKey, ""), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q (valid: gemini, openai)", provider)
	}
}

// Guarded applies the request budget and a per-call deadline before delegating.
type Guarded struct {
	next    Generator
	limiter *ratelimit.AIRateLimiter
	timeout time.Duration
}

// NewGuarded wraps next. A nil limiter or zero timeout disables that guard.
func NewGuarded(next Generator, limiter *ratelimit.AIRateLimiter, timeout time.Duration) *Guarded {
	return &Guarded{next: next, limiter: limiter, timeout: timeout}
}

func (g *Guarded) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if g.limiter != nil {
		if err := g.limiter.Acquire(ctx); err != nil {
			return "", err
		}
	}

	text, err := g.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
