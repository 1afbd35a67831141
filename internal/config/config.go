// Package config resolves process configuration once at startup from the
// environment, after loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/renderinc/tweet-explorer/internal/embeddings"
	"github.com/renderinc/tweet-explorer/internal/llm"
)

// Config holds every setting the server and CLI need
type Config struct {
	Host string
	Port int

	DataDir   string
	DBPath    string
	IndexPath string
	IDMapPath string

	LLM       llm.Config
	Embedding embeddings.Config

	KeywordIndex    bool
	FiltersCacheTTL time.Duration
	RequestTimeout  time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads envFile (if it exists) and then the environment.
// A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	dataDir := getString("DATA_DIR", "./data")
	openAIKey := getString("OPENAI_API_KEY", "")
	openAIBaseURL := getString("OPENAI_BASE_URL", "")

	cfg := &Config{
		Host: getString("HOST", "0.0.0.0"),
		Port: getInt("PORT", 8400),

		DataDir:   dataDir,
		DBPath:    getString("DB_PATH", filepath.Join(dataDir, "tweets.db")),
		IndexPath: getString("INDEX_PATH", filepath.Join(dataDir, "tweets.index")),
		IDMapPath: getString("ID_MAP_PATH", filepath.Join(dataDir, "id_map.json")),

		LLM: llm.Config{
			Provider:         getString("LLM_PROVIDER", llm.DefaultProvider),
			Model:            getString("LLM_MODEL", llm.DefaultModel),
			MaxTokens:        getInt("LLM_MAX_TOKENS", llm.DefaultMaxTokens),
			OpenAIAPIKey:     openAIKey,
			OpenAIBaseURL:    openAIBaseURL,
			AnthropicAPIKey:  getString("ANTHROPIC_API_KEY", ""),
			AnthropicBaseURL: getString("ANTHROPIC_BASE_URL", ""),
		},
		Embedding: embeddings.Config{
			Provider:   embeddings.DefaultProvider,
			APIKey:     openAIKey,
			BaseURL:    openAIBaseURL,
			Model:      getString("EMBEDDING_MODEL", embeddings.DefaultModel),
			Dimensions: getInt("EMBEDDING_DIMENSIONS", embeddings.DefaultDimensions),
		},

		KeywordIndex:    getBool("KEYWORD_INDEX", true),
		FiltersCacheTTL: getDuration("FILTERS_CACHE_TTL", 10*time.Minute),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 2*time.Minute),

		LogLevel:  getString("LOG_LEVEL", "info"),
		LogFormat: getString("LOG_FORMAT", "console"),
	}

	return cfg, nil
}

// UseDataDir points the artifact paths at dir, overriding any
// DATA_DIR, DB_PATH, INDEX_PATH or ID_MAP_PATH setting
func (c *Config) UseDataDir(dir string) {
	c.DataDir = dir
	c.DBPath = filepath.Join(dir, "tweets.db")
	c.IndexPath = filepath.Join(dir, "tweets.index")
	c.IDMapPath = filepath.Join(dir, "id_map.json")
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks settings that would otherwise fail late
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("invalid EMBEDDING_DIMENSIONS %d", c.Embedding.Dimensions)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid REQUEST_TIMEOUT %s", c.RequestTimeout)
	}
	return nil
}
