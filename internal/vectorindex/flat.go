package vectorindex

import (
	"bufio"
	"container/heap"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
)

// Metric is the FAISS metric type stored in the index header
type Metric int32

const (
	MetricInnerProduct Metric = 0
	MetricL2           Metric = 1
)

// FAISS fourcc codes for flat indexes
const (
	fourccFlatIP = "IxFI"
	fourccFlatL2 = "IxF2"
	fourccFlat   = "IxFl" // legacy: metric taken from the header
)

// Flat is an exhaustive in-memory index equivalent to IndexFlatIP / IndexFlatL2
type Flat struct {
	dim     int
	metric  Metric
	vectors []float32 // row-major, len = n*dim
}

var _ Searcher = (*Flat)(nil)

// NewFlat creates a flat index over vectors, which must all have length dim
func NewFlat(dim int, metric Metric, vectors [][]float32) (*Flat, error) {
	if metric != MetricInnerProduct && metric != MetricL2 {
		return nil, fmt.Errorf("%w: metric %d", ErrUnsupportedIndex, metric)
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		data = append(data, v...)
	}

	return &Flat{dim: dim, metric: metric, vectors: data}, nil
}

// ReadFlatFile reads a FAISS flat index file
func ReadFlatFile(path string) (*Flat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadFlat(bufio.NewReader(f))
}

// ReadFlat parses the FAISS serialization of a flat index
func ReadFlat(r io.Reader) (*Flat, error) {
	var fourcc [4]byte
	if _, err := io.ReadFull(r, fourcc[:]); err != nil {
		return nil, fmt.Errorf("read fourcc: %w", err)
	}

	h := string(fourcc[:])
	if h != fourccFlatIP && h != fourccFlatL2 && h != fourccFlat {
		return nil, fmt.Errorf("%w: %q (build with -tags faiss for non-flat indexes)", ErrUnsupportedIndex, h)
	}

	var header struct {
		Dim       int32
		NTotal    int64
		Dummy1    int64
		Dummy2    int64
		IsTrained uint8
		Metric    int32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header.Metric > 1 {
		var metricArg float32
		if err := binary.Read(r, binary.LittleEndian, &metricArg); err != nil {
			return nil, fmt.Errorf("read metric arg: %w", err)
		}
	}

	metric := Metric(header.Metric)
	switch h {
	case fourccFlatIP:
		metric = MetricInnerProduct
	case fourccFlatL2:
		metric = MetricL2
	}
	if metric != MetricInnerProduct && metric != MetricL2 {
		return nil, fmt.Errorf("%w: metric %d", ErrUnsupportedIndex, metric)
	}

	var size uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("read codes size: %w", err)
	}
	if header.Dim <= 0 || header.NTotal < 0 || size != uint64(header.NTotal)*uint64(header.Dim) {
		return nil, fmt.Errorf("corrupt index: dim=%d ntotal=%d codes=%d", header.Dim, header.NTotal, size)
	}

	vectors := make([]float32, size)
	if err := binary.Read(r, binary.LittleEndian, vectors); err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}

	return &Flat{dim: int(header.Dim), metric: metric, vectors: vectors}, nil
}

// WriteFlat serializes f in the FAISS flat index format
func WriteFlat(w io.Writer, f *Flat) error {
	h := fourccFlatIP
	if f.metric == MetricL2 {
		h = fourccFlatL2
	}
	if _, err := io.WriteString(w, h); err != nil {
		return err
	}

	header := struct {
		Dim       int32
		NTotal    int64
		Dummy1    int64
		Dummy2    int64
		IsTrained uint8
		Metric    int32
	}{
		Dim:       int32(f.dim),
		NTotal:    int64(f.Len()),
		Dummy1:    1 << 20,
		Dummy2:    1 << 20,
		IsTrained: 1,
		Metric:    int32(f.metric),
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(f.vectors))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, f.vectors)
}

// Search scores every vector and returns the k best, FAISS style:
// descending inner product or ascending squared L2 distance, padded
// with label -1 when k exceeds the number of vectors. Ties keep index
// order.
func (f *Flat) Search(vec []float32, k int) ([]float32, []int64, error) {
	if len(vec) != f.dim {
		return nil, nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(vec), f.dim)
	}
	k = max(k, 0)

	n := f.Len()
	best := &topK{metric: f.metric, hits: make([]candidate, 0, min(k, n))}
	for i := 0; i < n && k > 0; i++ {
		row := f.vectors[i*f.dim : (i+1)*f.dim]
		if f.metric == MetricL2 {
			best.offer(candidate{pos: i, dist: L2Squared(vec, row)}, k)
		} else {
			best.offer(candidate{pos: i, dist: InnerProduct(vec, row)}, k)
		}
	}
	hits := best.sorted()

	scores := make([]float32, k)
	labels := make([]int64, k)
	for j := 0; j < k; j++ {
		if j < len(hits) {
			scores[j] = hits[j].dist
			labels[j] = int64(hits[j].pos)
			continue
		}
		labels[j] = -1
		if f.metric == MetricL2 {
			scores[j] = float32(math.Inf(1))
		} else {
			scores[j] = float32(math.Inf(-1))
		}
	}

	return scores, labels, nil
}

type candidate struct {
	pos  int
	dist float32
}

// topK keeps the k best candidates seen so far in a heap rooted at the worst
// of them, so each further candidate costs O(log k).
type topK struct {
	metric Metric
	hits   []candidate
}

// better ranks a ahead of b; equal distances fall back to index order
func (h *topK) better(a, b candidate) bool {
	if a.dist != b.dist {
		if h.metric == MetricL2 {
			return a.dist < b.dist
		}
		return a.dist > b.dist
	}
	return a.pos < b.pos
}

func (h *topK) Len() int           { return len(h.hits) }
func (h *topK) Less(i, j int) bool { return h.better(h.hits[j], h.hits[i]) }
func (h *topK) Swap(i, j int)      { h.hits[i], h.hits[j] = h.hits[j], h.hits[i] }
func (h *topK) Push(x any)         { h.hits = append(h.hits, x.(candidate)) }
func (h *topK) Pop() any {
	last := h.hits[len(h.hits)-1]
	h.hits = h.hits[:len(h.hits)-1]
	return last
}

func (h *topK) offer(c candidate, k int) {
	if len(h.hits) < k {
		heap.Push(h, c)
		return
	}
	if h.better(c, h.hits[0]) {
		h.hits[0] = c
		heap.Fix(h, 0)
	}
}

// sorted returns the kept candidates best first
func (h *topK) sorted() []candidate {
	out := slices.Clone(h.hits)
	slices.SortFunc(out, func(a, b candidate) int {
		switch {
		case h.better(a, b):
			return -1
		case h.better(b, a):
			return 1
		default:
			return 0
		}
	})
	return out
}

// Dimension returns the vector size
func (f *Flat) Dimension() int {
	return f.dim
}

// Len returns the number of stored vectors
func (f *Flat) Len() int {
	if f.dim == 0 {
		return 0
	}
	return len(f.vectors) / f.dim
}

// Metric returns the distance the index was built with
func (f *Flat) Metric() Metric {
	return f.metric
}

// Close is a no-op; the vectors are garbage collected
func (f *Flat) Close() error {
	return nil
}
