// Package llm dispatches a system and user prompt to a chat-completion
// provider and returns the answer text. The provider is chosen once at
// startup; every variant satisfies the same Client interface.
package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedProvider is returned by New for an unknown provider name
	ErrUnsupportedProvider = errors.New("unsupported llm provider")

	// ErrMissingAPIKey is returned by New when the selected provider has no credentials
	ErrMissingAPIKey = errors.New("missing api key")

	// ErrEmptyResponse is returned when a provider answers without any choice
	ErrEmptyResponse = errors.New("empty llm response")
)

// Provider names accepted by New
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const (
	DefaultProvider  = ProviderOpenAI
	DefaultModel     = "gpt-4o"
	DefaultMaxTokens = 4096
)

// Client completes a single-turn conversation
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Provider() string
	Model() string
}

// Config selects and configures the chat provider
type Config struct {
	Provider  string
	Model     string
	MaxTokens int

	OpenAIAPIKey  string
	OpenAIBaseURL string

	AnthropicAPIKey  string
	AnthropicBaseURL string
}

// New builds the configured provider. Any error here is a startup failure.
func New(cfg Config) (Client, error) {
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is required for provider %s", ErrMissingAPIKey, cfg.Provider)
		}
		return NewOpenAI(cfg), nil
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is required for provider %s", ErrMissingAPIKey, cfg.Provider)
		}
		return NewAnthropic(cfg)
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s, %s)", ErrUnsupportedProvider, cfg.Provider, ProviderOpenAI, ProviderAnthropic)
	}
}
