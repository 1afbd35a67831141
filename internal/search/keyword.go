package search

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/renderinc/tweet-explorer/internal/storage"
)

// KeywordIndex is an in-memory Bleve index over the text fields of every post
type KeywordIndex struct {
	index bleve.Index
}

// keywordDocument represents a post in the keyword index
type keywordDocument struct {
	Text    string
	Summary string
	Tags    []string
	Author  string
	Handle  string
}

// Hit is a retrieval candidate before hydration
type Hit struct {
	ID    string
	Score float64
}

// NewKeywordIndex creates an empty in-memory index
func NewKeywordIndex() (*KeywordIndex, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	return &KeywordIndex{index: idx}, nil
}

// BuildKeywordIndex indexes every post from the store
func BuildKeywordIndex(ctx context.Context, store PostStore) (*KeywordIndex, error) {
	posts, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	idx, err := NewKeywordIndex()
	if err != nil {
		return nil, err
	}
	if err := idx.IndexPosts(posts); err != nil {
		idx.Close()
		return nil, err
	}
	return idx, nil
}

// buildIndexMapping stems free text with the English analyzer and keeps
// tags and handles as exact terms
func buildIndexMapping() mapping.IndexMapping {
	englishText := bleve.NewTextFieldMapping()
	englishText.Analyzer = "en"

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = "keyword"

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Text", englishText)
	docMapping.AddFieldMappingsAt("Summary", englishText)
	docMapping.AddFieldMappingsAt("Tags", exact)
	docMapping.AddFieldMappingsAt("Author", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Handle", exact)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en" // query text against _all is stemmed the same way
	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

// IndexPosts adds posts in one batch
func (k *KeywordIndex) IndexPosts(posts []*storage.Post) error {
	batch := k.index.NewBatch()
	for _, p := range posts {
		doc := keywordDocument{
			Text:    p.Text,
			Summary: p.Summary,
			Tags:    p.Tags,
			Author:  p.Author,
			Handle:  p.Handle,
		}
		if err := batch.Index(p.ID, doc); err != nil {
			return fmt.Errorf("batch index %s: %w", p.ID, err)
		}
	}

	if err := k.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Search runs a query-string query (quotes, +/-, field:value, fuzzy ~)
// and returns up to limit hits, best first
func (k *KeywordIndex) Search(ctx context.Context, queryStr string, limit int) ([]Hit, error) {
	query := bleve.NewQueryStringQuery(queryStr)
	if _, err := query.Parse(); err != nil {
		return nil, invalid("text", "keyword query: %v", err)
	}

	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	results, err := k.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, h := range results.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

// Count returns the number of indexed posts
func (k *KeywordIndex) Count() (uint64, error) {
	return k.index.DocCount()
}

// Close releases the index
func (k *KeywordIndex) Close() error {
	return k.index.Close()
}
