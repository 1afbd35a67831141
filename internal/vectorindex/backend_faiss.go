//go:build faiss

package vectorindex

import (
	faiss "github.com/blevesearch/go-faiss"
)

// BackendName identifies the compiled-in index reader
const BackendName = "faiss"

// faissIndex adapts a libfaiss index to Searcher
type faissIndex struct {
	idx faiss.Index
}

func openBackend(path string) (Searcher, error) {
	idx, err := faiss.ReadIndex(path, faiss.IOFlagReadOnly)
	if err != nil {
		return nil, err
	}
	return &faissIndex{idx: idx}, nil
}

func (f *faissIndex) Search(vec []float32, k int) ([]float32, []int64, error) {
	return f.idx.Search(vec, int64(k))
}

func (f *faissIndex) Dimension() int {
	return f.idx.D()
}

func (f *faissIndex) Len() int {
	return int(f.idx.Ntotal())
}

func (f *faissIndex) Metric() Metric {
	return Metric(f.idx.MetricType())
}

func (f *faissIndex) Close() error {
	f.idx.Close()
	return nil
}
