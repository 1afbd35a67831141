package embeddings

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyText is returned when asked to embed an empty string
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrNoEmbedding is returned when the provider answers without a vector
	ErrNoEmbedding = errors.New("no embedding returned")
)

// Defaults match the vectors the corpus index was built with
const (
	DefaultProvider   = "openai"
	DefaultModel      = "text-embedding-3-large"
	DefaultDimensions = 1536
)

// Embedder turns query text into a fixed-length vector
type Embedder interface {
	// Embed generates an embedding for a single text string
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension is the length of every vector Embed returns
	Dimension() int

	// Model names the embedding model in use
	Model() string
}

// Config selects and configures an embedding provider
type Config struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

// NewEmbedder creates a new embedding client based on the provider type
// Supported providers: "openai"
func NewEmbedder(cfg Config) (Embedder, error) {
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: openai)", cfg.Provider)
	}
}
