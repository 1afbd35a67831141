package search

import "github.com/renderinc/tweet-explorer/internal/filter"

// Parameter bounds and defaults
const (
	DefaultTopK     = 100
	MaxTopK         = 10000
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultWeight   = 0.5

	// MetadataQuery is reported as the query when no text was given
	MetadataQuery = "(metadata search)"
)

// Mode selects how text candidates are retrieved
type Mode string

const (
	ModeSemantic Mode = "semantic"
	ModeKeyword  Mode = "keyword"
	ModeHybrid   Mode = "hybrid"
)

// SearchRequest is a filtered search. Without Text every stored post is a
// candidate and Mode and Weight are ignored.
type SearchRequest struct {
	Text     string
	TopK     int
	Page     int
	PageSize int
	Mode     Mode

	// Weight is the semantic share of the fused score in hybrid mode
	Weight float64

	Filters filter.Criteria
}

// NewSearchRequest returns a request populated with the defaults
func NewSearchRequest() SearchRequest {
	return SearchRequest{
		TopK:     DefaultTopK,
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
		Mode:     ModeSemantic,
		Weight:   DefaultWeight,
	}
}

// Validate checks every bounded parameter. Mode and Weight are only
// checked when Text is set.
func (r SearchRequest) Validate() error {
	if err := validateTopK(r.TopK); err != nil {
		return err
	}
	if r.Page < 1 {
		return invalid("page", "must be >= 1, got %d", r.Page)
	}
	if r.PageSize < 1 || r.PageSize > MaxPageSize {
		return invalid("page_size", "must be between 1 and %d, got %d", MaxPageSize, r.PageSize)
	}

	if r.Text == "" {
		return nil
	}

	switch r.Mode {
	case ModeSemantic, ModeKeyword, ModeHybrid:
	default:
		return invalid("mode", "must be one of semantic, keyword, hybrid, got %q", r.Mode)
	}
	if r.Weight < 0 || r.Weight > 1 {
		return invalid("weight", "must be between 0 and 1, got %g", r.Weight)
	}

	return nil
}

// QueryRequest is a filtered semantic retrieval followed by LLM analysis
type QueryRequest struct {
	Text    string
	TopK    int
	Filters filter.Criteria
}

// NewQueryRequest returns a request populated with the defaults
func NewQueryRequest(text string) QueryRequest {
	return QueryRequest{Text: text, TopK: DefaultTopK}
}

// Validate checks the text and top_k
func (r QueryRequest) Validate() error {
	if r.Text == "" {
		return invalid("text", "is required")
	}
	return validateTopK(r.TopK)
}

func validateTopK(k int) error {
	if k < 1 || k > MaxTopK {
		return invalid("top_k", "must be between 1 and %d, got %d", MaxTopK, k)
	}
	return nil
}
