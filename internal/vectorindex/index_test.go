package vectorindex

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixtures(t *testing.T, metric Metric, vectors [][]float32, idMap string) (string, string) {
	t.Helper()

	dir := t.TempDir()
	flat, err := NewFlat(len(vectors[0]), metric, vectors)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFlat(&buf, flat))

	indexPath := filepath.Join(dir, "tweets.index")
	idMapPath := filepath.Join(dir, "id_map.json")
	require.NoError(t, os.WriteFile(indexPath, buf.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(idMapPath, []byte(idMap), 0o644))

	return indexPath, idMapPath
}

func TestFlat_RoundTrip(t *testing.T) {
	flat, err := NewFlat(2, MetricL2, [][]float32{{1, 0}, {0, 1}, {0.5, 0.5}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFlat(&buf, flat))

	got, err := ReadFlat(&buf)
	require.NoError(t, err)
	assert.Equal(t, flat, got)
	assert.Equal(t, 3, got.Len())
	assert.Equal(t, 2, got.Dimension())
}

func TestReadFlat_Unsupported(t *testing.T) {
	_, err := ReadFlat(bytes.NewReader([]byte("IHNf\x00\x00\x00\x00")))
	assert.ErrorIs(t, err, ErrUnsupportedIndex)
}

func TestReadFlat_Truncated(t *testing.T) {
	flat, err := NewFlat(2, MetricInnerProduct, [][]float32{{1, 0}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFlat(&buf, flat))

	_, err = ReadFlat(bytes.NewReader(buf.Bytes()[:buf.Len()-3]))
	assert.Error(t, err)
}

func TestFlat_SearchOrdering(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}, {0.6, 0.8}}

	t.Run("inner product descending", func(t *testing.T) {
		flat, err := NewFlat(2, MetricInnerProduct, vectors)
		require.NoError(t, err)

		scores, labels, err := flat.Search([]float32{0, 1}, 3)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 0}, labels)
		assert.InDelta(t, 1.0, scores[0], 1e-6)
		assert.InDelta(t, 0.8, scores[1], 1e-6)
	})

	t.Run("l2 ascending", func(t *testing.T) {
		flat, err := NewFlat(2, MetricL2, vectors)
		require.NoError(t, err)

		scores, labels, err := flat.Search([]float32{1, 0}, 2)
		require.NoError(t, err)
		assert.Equal(t, []int64{0, 2}, labels)
		assert.InDelta(t, 0.0, scores[0], 1e-6)
	})

	t.Run("padded past ntotal", func(t *testing.T) {
		flat, err := NewFlat(2, MetricInnerProduct, vectors)
		require.NoError(t, err)

		_, labels, err := flat.Search([]float32{1, 0}, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(-1), labels[3])
		assert.Equal(t, int64(-1), labels[4])
	})
}

func TestFlat_SearchTopKWithTies(t *testing.T) {
	vectors := [][]float32{{3}, {1}, {3}, {2}, {5}, {1}, {2}, {3}}

	tests := []struct {
		name    string
		metric  Metric
		query   []float32
		ranking []int64
	}{
		{"inner product", MetricInnerProduct, []float32{1}, []int64{4, 0, 2, 7, 3, 6, 1, 5}},
		{"l2", MetricL2, []float32{0}, []int64{1, 5, 3, 6, 0, 2, 7, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flat, err := NewFlat(1, tt.metric, vectors)
			require.NoError(t, err)

			for _, k := range []int{1, 3, 4, len(vectors)} {
				scores, labels, err := flat.Search(tt.query, k)
				require.NoError(t, err)
				assert.Equal(t, tt.ranking[:k], labels, "k=%d", k)
				for j, label := range labels {
					want := vectors[label][0] * tt.query[0]
					if tt.metric == MetricL2 {
						want = vectors[label][0] * vectors[label][0]
					}
					assert.Equal(t, want, scores[j], "k=%d rank=%d", k, j)
				}
			}

			_, labels, err := flat.Search(tt.query, len(vectors)+2)
			require.NoError(t, err)
			assert.Equal(t, append(slices.Clone(tt.ranking), -1, -1), labels)

			scores, labels, err := flat.Search(tt.query, 0)
			require.NoError(t, err)
			assert.Empty(t, scores)
			assert.Empty(t, labels)
		})
	}
}

func TestOpenAndSearch(t *testing.T) {
	indexPath, idMapPath := writeFixtures(t, MetricInnerProduct,
		[][]float32{{1, 0}, {0, 1}, {0.6, 0.8}},
		`["a", "b", "c"]`)

	idx, err := Open(indexPath, idMapPath)
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, 2, idx.Dimension())
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 3, idx.IDCount())
	assert.True(t, idx.HigherIsBetter())

	hits, err := idx.Search(context.Background(), []float32{0, 1}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "b", hits[0].ID)
	assert.Equal(t, "c", hits[1].ID)
	assert.Equal(t, "a", hits[2].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestSearch_SkipsPositionsOutsideIDMap(t *testing.T) {
	// id map shorter than the index: position 2 has no identifier
	indexPath, idMapPath := writeFixtures(t, MetricInnerProduct,
		[][]float32{{1, 0}, {0, 1}, {0.6, 0.8}},
		`["a", "b"]`)

	idx, err := Open(indexPath, idMapPath)
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), []float32{0, 1}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "b", hits[0].ID)
	assert.Equal(t, "a", hits[1].ID)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	indexPath, idMapPath := writeFixtures(t, MetricInnerProduct, [][]float32{{1, 0}}, `["a"]`)

	idx, err := Open(indexPath, idMapPath)
	require.NoError(t, err)

	_, err = idx.Search(context.Background(), []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSearch_CanceledContext(t *testing.T) {
	indexPath, idMapPath := writeFixtures(t, MetricInnerProduct, [][]float32{{1, 0}}, `["a"]`)

	idx, err := Open(indexPath, idMapPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = idx.Search(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadIDMap(t *testing.T) {
	dir := t.TempDir()

	t.Run("numeric ids", func(t *testing.T) {
		path := filepath.Join(dir, "numeric.json")
		require.NoError(t, os.WriteFile(path, []byte(`[1790000000000000001, "abc"]`), 0o644))

		ids, err := LoadIDMap(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"1790000000000000001", "abc"}, ids)
	})

	t.Run("not an array", func(t *testing.T) {
		path := filepath.Join(dir, "object.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"0": "a"}`), 0o644))

		_, err := LoadIDMap(path)
		assert.Error(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LoadIDMap(filepath.Join(dir, "missing.json"))
		assert.Error(t, err)
	})
}
