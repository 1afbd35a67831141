// Package vectorindex wraps a precomputed nearest-neighbour index and maps
// its internal positions back to stable post identifiers.
//
// The index file is loaded once, read-only. By default it is parsed by the
// pure Go flat reader (IndexFlatIP / IndexFlatL2). Building with the faiss
// tag delegates to libfaiss instead, which supports every index type:
//
//	CGO_ENABLED=1 go build -tags faiss ./...
package vectorindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrDimensionMismatch is returned when a query vector does not match the index dimension
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrUnsupportedIndex is returned when the index file holds a type the backend cannot read
	ErrUnsupportedIndex = errors.New("unsupported index type")
)

// Searcher is a loaded nearest-neighbour index addressed by internal position.
// Labels follow FAISS conventions: a negative label means "no match".
// Implementations must be safe for concurrent reads.
type Searcher interface {
	Search(vec []float32, k int) (scores []float32, labels []int64, err error)
	Dimension() int
	Len() int
	Metric() Metric
	Close() error
}

// Hit is one nearest-neighbour result translated to a post identifier
type Hit struct {
	ID    string
	Score float64
}

// Index pairs a Searcher with its position→identifier map
type Index struct {
	backend Searcher
	ids     []string
}

// New creates an Index from an already loaded backend and id map
func New(backend Searcher, ids []string) *Index {
	return &Index{backend: backend, ids: ids}
}

// Open loads the index file and the position→identifier map
func Open(indexPath, idMapPath string) (*Index, error) {
	ids, err := LoadIDMap(idMapPath)
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(indexPath)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", indexPath, err)
	}

	return New(backend, ids), nil
}

// LoadIDMap reads a JSON array aligning index positions with post identifiers
func LoadIDMap(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open id map: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()

	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode id map: %w", err)
	}

	ids := make([]string, len(raw))
	for i, v := range raw {
		switch id := v.(type) {
		case string:
			ids[i] = id
		case json.Number:
			ids[i] = id.String()
		default:
			return nil, fmt.Errorf("id map entry %d: unexpected %T", i, v)
		}
	}

	return ids, nil
}

// Search returns up to k hits ordered best match first.
// Positions the index reports as empty, or that fall outside the id map, are dropped.
func (i *Index) Search(ctx context.Context, vec []float32, k int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vec) != i.backend.Dimension() {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(vec), i.backend.Dimension())
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	scores, labels, err := i.backend.Search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(labels))
	for j, label := range labels {
		if label < 0 || label >= int64(len(i.ids)) {
			continue
		}
		hits = append(hits, Hit{ID: i.ids[label], Score: float64(scores[j])})
	}

	return hits, nil
}

// Dimension returns the vector size the index expects
func (i *Index) Dimension() int {
	return i.backend.Dimension()
}

// HigherIsBetter reports whether larger raw scores mean closer matches
func (i *Index) HigherIsBetter() bool {
	return i.backend.Metric() == MetricInnerProduct
}

// Len returns the number of vectors in the index
func (i *Index) Len() int {
	return i.backend.Len()
}

// IDCount returns the number of entries in the position→identifier map
func (i *Index) IDCount() int {
	return len(i.ids)
}

// Close releases the backend
func (i *Index) Close() error {
	return i.backend.Close()
}
