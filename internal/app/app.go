// Package app loads every long-lived dependency once at startup and hands
// them out as a read-only bundle.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/renderinc/tweet-explorer/internal/config"
	"github.com/renderinc/tweet-explorer/internal/embeddings"
	"github.com/renderinc/tweet-explorer/internal/llm"
	"github.com/renderinc/tweet-explorer/internal/metrics"
	"github.com/renderinc/tweet-explorer/internal/search"
	"github.com/renderinc/tweet-explorer/internal/storage"
	"github.com/renderinc/tweet-explorer/internal/vectorindex"
)

// App is the process-wide state. Nothing in it is mutated after Load returns.
type App struct {
	Config   *config.Config
	Store    *storage.DB
	Index    *vectorindex.Index
	Embedder embeddings.Embedder
	LLM      llm.Client
	Keyword  *search.KeywordIndex
	Search   *search.Service
	Registry *prometheus.Registry
	Logger   zerolog.Logger
}

// Stats summarises the loaded artifacts
type Stats struct {
	Status         string `json:"status"`
	PostsInStore   int    `json:"posts_in_store"`
	VectorsInIndex int    `json:"vectors_in_index"`
	IDMapEntries   int    `json:"id_map_entries"`
	KeywordIndex   bool   `json:"keyword_index"`
	LLMProvider    string `json:"llm_provider"`
	LLMModel       string `json:"llm_model"`
}

// Load builds the provider clients, then opens the store, the vector index
// and (optionally) the keyword index in parallel. Any failure is fatal.
func Load(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	llmClient, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}

	a := &App{
		Config:   cfg,
		Embedder: embedder,
		LLM:      llmClient,
		Logger:   logger,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("metadata store: %w", err)
		}
		a.Store = db

		if !cfg.KeywordIndex {
			return nil
		}
		kw, err := search.BuildKeywordIndex(gctx, db)
		if err != nil {
			return fmt.Errorf("keyword index: %w", err)
		}
		a.Keyword = kw
		return nil
	})

	g.Go(func() error {
		idx, err := vectorindex.Open(cfg.IndexPath, cfg.IDMapPath)
		if err != nil {
			return fmt.Errorf("vector index: %w", err)
		}
		a.Index = idx
		return nil
	})

	if err := g.Wait(); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.checkConsistency(); err != nil {
		a.Close()
		return nil, err
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a.Search = search.NewService(search.Options{
		Store:    a.Store,
		Index:    a.Index,
		Embedder: a.Embedder,
		LLM:      a.LLM,
		Keyword:  a.Keyword,
		Metrics:  metrics.New(a.Registry),
		Logger:   logger,
	})

	logger.Info().
		Int("vectors", a.Index.Len()).
		Int("id_map_entries", a.Index.IDCount()).
		Int("dimension", a.Index.Dimension()).
		Str("index_backend", vectorindex.BackendName).
		Str("sqlite", storage.BuildMode).
		Bool("keyword_index", a.Keyword != nil).
		Str("llm_provider", a.LLM.Provider()).
		Str("llm_model", a.LLM.Model()).
		Msg("Loaded corpus")

	return a, nil
}

func (a *App) checkConsistency() error {
	if want, got := a.Embedder.Dimension(), a.Index.Dimension(); want != got {
		return fmt.Errorf("%w: embedding dimension %d, index dimension %d", vectorindex.ErrDimensionMismatch, want, got)
	}

	if a.Index.IDCount() != a.Index.Len() {
		a.Logger.Warn().
			Int("vectors", a.Index.Len()).
			Int("id_map_entries", a.Index.IDCount()).
			Msg("Id map and vector index sizes differ")
	}
	return nil
}

// Stats reports the sizes of the loaded artifacts
func (a *App) Stats(ctx context.Context) (*Stats, error) {
	posts, err := a.Store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	return &Stats{
		Status:         "ok",
		PostsInStore:   posts,
		VectorsInIndex: a.Index.Len(),
		IDMapEntries:   a.Index.IDCount(),
		KeywordIndex:   a.Keyword != nil,
		LLMProvider:    a.LLM.Provider(),
		LLMModel:       a.LLM.Model(),
	}, nil
}

// Close releases everything Load opened
func (a *App) Close() error {
	var errs []error
	if a.Keyword != nil {
		errs = append(errs, a.Keyword.Close())
	}
	if a.Index != nil {
		errs = append(errs, a.Index.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
