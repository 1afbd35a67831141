// Package search composes embedding, vector retrieval, hydration and
// filtering into the two request flows: a paginated filtered search and a
// query that hands the filtered posts to an LLM for analysis.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/renderinc/tweet-explorer/internal/embeddings"
	"github.com/renderinc/tweet-explorer/internal/filter"
	"github.com/renderinc/tweet-explorer/internal/llm"
	"github.com/renderinc/tweet-explorer/internal/metrics"
	"github.com/renderinc/tweet-explorer/internal/storage"
	"github.com/renderinc/tweet-explorer/internal/vectorindex"
)

// PostStore is the read-only metadata store
type PostStore interface {
	Get(ctx context.Context, id string) (*storage.Post, error)
	GetMany(ctx context.Context, ids []string) (map[string]*storage.Post, error)
	List(ctx context.Context) ([]*storage.Post, error)
	FilterOptions(ctx context.Context) (*storage.FilterOptions, error)
}

// VectorIndex finds the nearest stored posts to a query vector
type VectorIndex interface {
	Search(ctx context.Context, vec []float32, k int) ([]vectorindex.Hit, error)
	HigherIsBetter() bool
}

// Options wires a Service. Keyword and Metrics are optional.
type Options struct {
	Store    PostStore
	Index    VectorIndex
	Embedder embeddings.Embedder
	LLM      llm.Client
	Keyword  *KeywordIndex
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// Service is safe for concurrent use; it holds only read-only dependencies
type Service struct {
	store    PostStore
	index    VectorIndex
	embedder embeddings.Embedder
	llm      llm.Client
	keyword  *KeywordIndex
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewService creates a Service from its dependencies
func NewService(opts Options) *Service {
	return &Service{
		store:    opts.Store,
		index:    opts.Index,
		embedder: opts.Embedder,
		llm:      opts.LLM,
		keyword:  opts.Keyword,
		metrics:  opts.Metrics,
		logger:   opts.Logger.With().Str("component", "search").Logger(),
	}
}

// KeywordEnabled reports whether keyword and hybrid modes are available
func (s *Service) KeywordEnabled() bool {
	return s.keyword != nil
}

// Search retrieves candidates (by text, or every stored post without text),
// filters them and returns the requested page
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var matches []Match
	if req.Text == "" {
		posts, err := s.store.List(ctx)
		if err != nil {
			s.metrics.UpstreamError(metrics.StageStore)
			return nil, fmt.Errorf("%w: %w", ErrStoreFailed, err)
		}

		matches = make([]Match, len(posts))
		for i, p := range posts {
			matches[i] = Match{Post: p}
		}
	} else {
		if req.Mode != ModeSemantic && s.keyword == nil {
			return nil, invalid("mode", "%s search needs the keyword index, which is disabled", req.Mode)
		}

		hits, err := s.retrieve(ctx, req)
		if err != nil {
			return nil, err
		}

		if matches, err = s.hydrate(ctx, hits); err != nil {
			return nil, err
		}
	}
	s.metrics.ObserveCandidates(len(matches))

	filtered := filter.Apply(matches, req.Filters, matchPost)
	s.metrics.ObserveFiltered("search", len(filtered))

	query := req.Text
	if query == "" {
		query = MetadataQuery
	}

	return &SearchResult{
		Query:        query,
		Page:         req.Page,
		PageSize:     req.PageSize,
		TotalMatches: len(filtered),
		Matches:      Paginate(filtered, req.Page, req.PageSize),
	}, nil
}

// Query runs semantic retrieval and filtering, then asks the LLM to answer
// the text using the filtered posts as context. Zero filtered posts is not an
// error: the question is sent without context.
func (s *Service) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hits, err := s.semanticHits(ctx, req.Text, req.TopK)
	if err != nil {
		return nil, err
	}

	matches, err := s.hydrate(ctx, hits)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCandidates(len(matches))

	filtered := filter.Apply(matches, req.Filters, matchPost)
	s.metrics.ObserveFiltered("query", len(filtered))

	s.logger.Info().Int("posts", len(filtered)).Msg("Posts sent to LLM for context")
	if len(filtered) == 0 {
		s.logger.Warn().Str("query", req.Text).Msg("No posts matched filters, LLM receives no context")
	}

	posts := make([]*storage.Post, len(filtered))
	for i, m := range filtered {
		posts[i] = m.Post
	}

	start := time.Now()
	answer, err := s.llm.Complete(ctx, SystemPrompt, BuildPrompt(req.Text, posts))
	s.metrics.ObserveLLM(s.llm.Provider(), time.Since(start))
	if err != nil {
		s.metrics.UpstreamError(metrics.StageLLM)
		return nil, fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}

	return &QueryResult{
		Query:   req.Text,
		Matches: filtered,
		Answer:  answer,
	}, nil
}

// Post returns one stored post, or nil if absent
func (s *Service) Post(ctx context.Context, id string) (*storage.Post, error) {
	post, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	return post, nil
}

// FilterOptions lists the distinct facet values across the store
func (s *Service) FilterOptions(ctx context.Context) (*storage.FilterOptions, error) {
	opts, err := s.store.FilterOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	return opts, nil
}

func (s *Service) retrieve(ctx context.Context, req SearchRequest) ([]Hit, error) {
	switch req.Mode {
	case ModeKeyword:
		return s.keywordHits(ctx, req.Text, req.TopK)

	case ModeHybrid:
		// Get 3x more candidates for better merging
		candidateLimit := req.TopK * 3

		semantic, err := s.semanticHits(ctx, req.Text, candidateLimit)
		if err != nil {
			return nil, err
		}
		keyword, err := s.keywordHits(ctx, req.Text, candidateLimit)
		if err != nil {
			return nil, err
		}

		if !s.index.HigherIsBetter() {
			for i := range semantic {
				semantic[i].Score = -semantic[i].Score
			}
		}
		return fuse(semantic, keyword, req.Weight, req.TopK), nil

	default:
		return s.semanticHits(ctx, req.Text, req.TopK)
	}
}

func (s *Service) semanticHits(ctx context.Context, text string, k int) ([]Hit, error) {
	start := time.Now()
	vec, err := s.embedder.Embed(ctx, text)
	s.metrics.ObserveEmbedding(time.Since(start))
	if err != nil {
		s.metrics.UpstreamError(metrics.StageEmbedding)
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	found, err := s.index.Search(ctx, vec, k)
	if err != nil {
		s.metrics.UpstreamError(metrics.StageIndex)
		return nil, fmt.Errorf("%w: %w", ErrIndexFailed, err)
	}

	hits := make([]Hit, len(found))
	for i, h := range found {
		hits[i] = Hit{ID: h.ID, Score: h.Score}
	}
	return hits, nil
}

func (s *Service) keywordHits(ctx context.Context, text string, k int) ([]Hit, error) {
	hits, err := s.keyword.Search(ctx, text, k)
	if err != nil {
		if IsValidation(err) {
			return nil, err
		}
		s.metrics.UpstreamError(metrics.StageIndex)
		return nil, fmt.Errorf("%w: %w", ErrIndexFailed, err)
	}
	return hits, nil
}

// hydrate loads the stored post of every hit, in hit order.
// Hits without a stored post are dropped.
func (s *Service) hydrate(ctx context.Context, hits []Hit) ([]Match, error) {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}

	posts, err := s.store.GetMany(ctx, ids)
	if err != nil {
		s.metrics.UpstreamError(metrics.StageStore)
		return nil, fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}

	matches := make([]Match, 0, len(hits))
	for _, h := range hits {
		post, ok := posts[h.ID]
		if !ok {
			continue
		}
		matches = append(matches, Match{Post: post, Score: Score(h.Score)})
	}

	if dropped := len(hits) - len(matches); dropped > 0 {
		s.logger.Debug().Int("dropped", dropped).Msg("Index hits without a stored post")
	}
	return matches, nil
}

func matchPost(m Match) *storage.Post {
	return m.Post
}
