package llm

import (
	"context"
	"sync"
)

// Prompt is one recorded Complete call
type Prompt struct {
	System string
	User   string
}

// MockClient is a test double.
// If CompleteFunc is nil, Complete returns Response.
type MockClient struct {
	Response     string
	CompleteFunc func(ctx context.Context, system, user string) (string, error)

	mu      sync.Mutex
	prompts []Prompt
}

// NewMockClient creates a mock that always answers with response
func NewMockClient(response string) *MockClient {
	return &MockClient{Response: response}
}

// Complete records the prompt and answers
func (m *MockClient) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, Prompt{System: system, User: user})
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, user)
	}
	return m.Response, nil
}

func (m *MockClient) Provider() string { return "mock" }

func (m *MockClient) Model() string { return "mock" }

// Prompts returns every prompt received so far
func (m *MockClient) Prompts() []Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Prompt(nil), m.prompts...)
}
