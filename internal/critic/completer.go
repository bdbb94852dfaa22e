// Package critic asks a language model to critique the design decisions on
// a board and turns its reply into a short, deduplicated list of points.
package critic

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider names accepted by NewCompleter.
const (
	ProviderNone      = "none"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ErrNoProvider is returned by NewCompleter when no provider is configured.
var ErrNoProvider = errors.New("critic: no provider configured")

// Completer sends one system+user prompt pair to a model and returns the
// text of its reply.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, system, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, system, prompt string) (string, error) {
	return f(ctx, system, prompt)
}

// ProviderConfig selects and tunes a model provider.
type ProviderConfig struct {
	Provider  string
	Model     string
	MaxTokens int
	// APIKey overrides the provider's environment variable when set.
	APIKey string
}

// NewCompleter builds the Completer for cfg.Provider. It returns
// ErrNoProvider for "" and "none".
func NewCompleter(cfg ProviderConfig) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderNone:
		return nil, ErrNoProvider
	case ProviderOpenAI:
		return NewOpenAICompleter(cfg.Model, cfg.MaxTokens, cfg.APIKey), nil
	case ProviderAnthropic:
		return NewAnthropicCompleter(cfg.Model, cfg.MaxTokens, cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("critic: unknown provider %q", cfg.Provider)
	}
}
