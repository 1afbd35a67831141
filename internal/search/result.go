package search

import (
	"math"

	"github.com/renderinc/tweet-explorer/internal/storage"
)

// Match is a post with its retrieval score.
// Score is nil for metadata scans and for non-finite raw scores.
type Match struct {
	*storage.Post
	Score *float64 `json:"score"`
}

// SearchResult is one page of filtered matches
type SearchResult struct {
	Query        string  `json:"query"`
	Page         int     `json:"page"`
	PageSize     int     `json:"page_size"`
	TotalMatches int     `json:"total_matches"`
	Matches      []Match `json:"matches"`
}

// QueryResult carries every filtered match and the LLM answer
type QueryResult struct {
	Query   string  `json:"query"`
	Matches []Match `json:"matches"`
	Answer  string  `json:"gpt_response"`
}

// Score rounds a raw score to 4 decimals; NaN and infinities become nil
func Score(raw float64) *float64 {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return nil
	}
	s := math.Round(raw*1e4) / 1e4
	return &s
}

// Paginate returns the 1-based page of items. Pages past the end are empty.
func Paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize < 1 {
		return []T{}
	}

	pages := len(items) / pageSize
	if len(items)%pageSize != 0 {
		pages++
	}
	// checked before multiplying so huge page numbers cannot overflow
	if page > pages {
		return []T{}
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(items))
	return items[start:end]
}
