package embeddings

import (
	"context"
	"sync"
)

// MockEmbedder is a test double. EmbedFunc overrides the default behaviour
// of returning Vector.
type MockEmbedder struct {
	Vector    []float32
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)

	mu    sync.Mutex
	calls []string
}

// Embed records the call and returns the configured vector
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	if text == "" {
		return nil, ErrEmptyText
	}
	return m.Vector, nil
}

// Dimension returns the length of Vector
func (m *MockEmbedder) Dimension() int {
	return len(m.Vector)
}

// Model returns a fixed name
func (m *MockEmbedder) Model() string {
	return "mock"
}

// Calls returns the texts passed to Embed so far
func (m *MockEmbedder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
