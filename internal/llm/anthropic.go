package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// Anthropic calls the Messages API through langchaingo
type Anthropic struct {
	client    llms.Model
	model     string
	maxTokens int
}

// NewAnthropic creates an Anthropic chat client
func NewAnthropic(cfg Config) (*Anthropic, error) {
	opts := []anthropic.Option{
		anthropic.WithToken(cfg.AnthropicAPIKey),
		anthropic.WithModel(cfg.Model),
	}
	if cfg.AnthropicBaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.AnthropicBaseURL))
	}

	client, err := anthropic.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create anthropic client: %w", err)
	}

	return &Anthropic{client: client, model: cfg.Model, maxTokens: cfg.MaxTokens}, nil
}

// Complete sends the system and user messages and returns the first choice
func (c *Anthropic) Complete(ctx context.Context, system, user string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	resp, err := c.client.GenerateContent(ctx, content, llms.WithMaxTokens(c.maxTokens))
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Content, nil
}

func (c *Anthropic) Provider() string { return ProviderAnthropic }

func (c *Anthropic) Model() string { return c.model }
