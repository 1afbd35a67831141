package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renderinc/tweet-explorer/internal/app"
	"github.com/renderinc/tweet-explorer/internal/embeddings"
	"github.com/renderinc/tweet-explorer/internal/llm"
	"github.com/renderinc/tweet-explorer/internal/metrics"
	"github.com/renderinc/tweet-explorer/internal/search"
	"github.com/renderinc/tweet-explorer/internal/storage"
	"github.com/renderinc/tweet-explorer/internal/vectorindex"
)

type testServer struct {
	server   *Server
	db       *storage.DB
	embedder *embeddings.MockEmbedder
	llm      *llm.MockClient
}

func setupServer(t *testing.T) *testServer {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tweets.db")
	require.NoError(t, storage.WriteFixture(path,
		&storage.Post{
			ID:        "1",
			Text:      "defi summer",
			Tags:      []string{"defi"},
			Author:    "Alice",
			Handle:    "alice",
			Date:      "2024-05-01",
			LikeCount: 50,
			ImageTags: []storage.ImageTag{{PrimaryTag: "chart", Subtags: []string{"btc"}}},
		},
		&storage.Post{
			ID:        "3",
			Text:      "nft floor",
			Tags:      []string{"nft"},
			Author:    "Bob",
			Handle:    "bob",
			Date:      "2024-06-12",
			LikeCount: 5,
		},
		&storage.Post{
			ID:        "5",
			Text:      "memecoins",
			Tags:      []string{"memes"},
			Author:    "Carol",
			Handle:    "carol",
			Date:      "2023-01-03",
			LikeCount: 500,
		},
	))
	db, err := storage.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// ids 2 and 4 are indexed but missing from the store
	flat, err := vectorindex.NewFlat(2, vectorindex.MetricInnerProduct, [][]float32{
		{1, 0}, {0.9, 0.1}, {0.8, 0.2}, {0.7, 0.3}, {0.6, 0.4},
	})
	require.NoError(t, err)

	ts := &testServer{
		db:       db,
		embedder: &embeddings.MockEmbedder{Vector: []float32{1, 0}},
		llm:      llm.NewMockClient("Sentiment is mixed."),
	}

	reg := prometheus.NewRegistry()
	svc := search.NewService(search.Options{
		Store:    db,
		Index:    vectorindex.New(flat, []string{"1", "2", "3", "4", "5"}),
		Embedder: ts.embedder,
		LLM:      ts.llm,
		Metrics:  metrics.New(reg),
		Logger:   zerolog.Nop(),
	})

	stats := func(ctx context.Context) (*app.Stats, error) {
		return &app.Stats{Status: "ok", PostsInStore: 3, VectorsInIndex: 5, IDMapEntries: 5, LLMProvider: "mock", LLMModel: "mock"}, nil
	}

	ts.server = NewServer(svc, stats, reg, Config{FiltersCacheTTL: time.Minute, RequestTimeout: time.Minute}, zerolog.Nop())
	return ts
}

func (ts *testServer) get(t *testing.T, url string) (int, map[string]any) {
	t.Helper()

	resp, err := ts.server.App().Test(httptest.NewRequest(http.MethodGet, url, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func matchIDs(t *testing.T, body map[string]any) []string {
	t.Helper()

	matches, ok := body["matches"].([]any)
	require.True(t, ok, "matches is a list")

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.(map[string]any)["id"].(string)
	}
	return ids
}

func TestFilters(t *testing.T) {
	ts := setupServer(t)

	status, body := ts.get(t, "/filters")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"defi", "memes", "nft"}, body["tags"])
	assert.Equal(t, []any{"Alice", "Bob", "Carol"}, body["authors"])
	assert.Equal(t, []any{"alice", "bob", "carol"}, body["handles"])
	assert.Equal(t, []any{"chart"}, body["image_tags"])
	assert.Equal(t, []any{"btc"}, body["image_subtags"])

	// served from cache once the store is gone
	require.NoError(t, ts.db.Close())
	status, cached := ts.get(t, "/filters")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, body, cached)
}

func TestSearch_MetadataFilters(t *testing.T) {
	ts := setupServer(t)

	status, body := ts.get(t, "/search?tag=defi&min_likes=10")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "(metadata search)", body["query"])
	assert.Equal(t, float64(1), body["total_matches"])
	assert.Equal(t, []string{"1"}, matchIDs(t, body))

	match := body["matches"].([]any)[0].(map[string]any)
	assert.Contains(t, match, "score")
	assert.Nil(t, match["score"])

	status, body = ts.get(t, "/search?tag=defi&min_likes=100")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["total_matches"])
	assert.Empty(t, matchIDs(t, body))
}

func TestSearch_TextSkipsUnknownIDs(t *testing.T) {
	ts := setupServer(t)

	status, body := ts.get(t, "/search?text=hello&top_k=5")
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "hello", body["query"])
	assert.Equal(t, float64(3), body["total_matches"])
	assert.Equal(t, float64(1), body["page"])
	assert.Equal(t, float64(20), body["page_size"])
	assert.Equal(t, []string{"1", "3", "5"}, matchIDs(t, body))

	first := body["matches"].([]any)[0].(map[string]any)
	assert.Equal(t, 1.0, first["score"])
	assert.Equal(t, "alice", first["handle"])
}

func TestSearch_Pagination(t *testing.T) {
	ts := setupServer(t)

	status, body := ts.get(t, "/search?page=2&page_size=2")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["total_matches"])
	assert.Equal(t, []string{"5"}, matchIDs(t, body))

	status, body = ts.get(t, "/search?page=5&page_size=2")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["total_matches"])
	assert.Empty(t, matchIDs(t, body))

	status, body = ts.get(t, "/search?page=9223372036854775807&page_size=20")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["total_matches"])
	assert.Empty(t, matchIDs(t, body))

	status, body = ts.get(t, "/search?text=hello&page=9223372036854775807&page_size=100")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["total_matches"])
	assert.Empty(t, matchIDs(t, body))
}

func TestSearch_AuthorAndHandleLists(t *testing.T) {
	ts := setupServer(t)

	_, body := ts.get(t, "/search?author=Alice,Carol")
	assert.Equal(t, []string{"1", "5"}, matchIDs(t, body))

	_, body = ts.get(t, "/search?author=Alice,Carol&handle=carol")
	assert.Equal(t, []string{"5"}, matchIDs(t, body))
}

func TestSearch_ValidationErrors(t *testing.T) {
	ts := setupServer(t)

	urls := []string{
		"/search?text=x&top_k=0",
		"/search?text=x&top_k=10001",
		"/search?text=x&top_k=many",
		"/search?text=x&page=0",
		"/search?text=x&page_size=0",
		"/search?text=x&page_size=101",
		"/search?text=x&min_likes=lots",
		"/search?text=x&year=last",
		"/search?text=x&mode=keyword",
		"/search?text=x&weight=2",
	}

	for _, url := range urls {
		t.Run(url, func(t *testing.T) {
			status, body := ts.get(t, url)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, body["error"])
		})
	}

	assert.Empty(t, ts.embedder.Calls(), "no retrieval for rejected requests")
}

func TestSearch_UpstreamFailure(t *testing.T) {
	ts := setupServer(t)
	ts.embedder.EmbedFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("quota exceeded")
	}

	status, body := ts.get(t, "/search?text=hello")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body["error"], "quota exceeded")
}

func TestInternalErrorsHideDetails(t *testing.T) {
	ts := setupServer(t)
	ts.server.stats = func(ctx context.Context) (*app.Stats, error) {
		return nil, errors.New("count posts: disk I/O error")
	}
	ts.server.App().Get("/panics", func(c *fiber.Ctx) error {
		var posts []string
		return c.SendString(posts[3])
	})

	for _, url := range []string{"/health", "/panics"} {
		t.Run(url, func(t *testing.T) {
			status, body := ts.get(t, url)
			assert.Equal(t, http.StatusInternalServerError, status)
			assert.Equal(t, "internal error", body["error"])
		})
	}
}

func TestQuery(t *testing.T) {
	ts := setupServer(t)

	status, body := ts.get(t, "/query?text=what+is+hot&handle=alice,bob")
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "what is hot", body["query"])
	assert.Equal(t, "Sentiment is mixed.", body["gpt_response"])
	assert.Equal(t, []string{"1", "3"}, matchIDs(t, body))

	prompts := ts.llm.Prompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, search.SystemPrompt, prompts[0].System)
	assert.Contains(t, prompts[0].User, "Tweet 1 (@alice, 2024-05-01):")
	assert.Contains(t, prompts[0].User, "Tweet 2 (@bob, 2024-06-12):")
}

func TestQuery_IgnoresAuthor(t *testing.T) {
	ts := setupServer(t)

	status, body := ts.get(t, "/query?text=hello&author=nobody")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"1", "3", "5"}, matchIDs(t, body))
}

func TestQuery_NoMatches(t *testing.T) {
	ts := setupServer(t)

	status, body := ts.get(t, "/query?text=solana&tag=solana")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, matchIDs(t, body))
	assert.NotEmpty(t, body["gpt_response"])
}

func TestQuery_RequiresText(t *testing.T) {
	ts := setupServer(t)

	status, body := ts.get(t, "/query")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "text")
	assert.Empty(t, ts.llm.Prompts())
}

func TestQuery_LLMFailure(t *testing.T) {
	ts := setupServer(t)
	ts.llm.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return "", errors.New("model overloaded")
	}

	status, body := ts.get(t, "/query?text=hello")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body["error"], "model overloaded")
}

func TestGetPost(t *testing.T) {
	ts := setupServer(t)

	status, body := ts.get(t, "/posts/3")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "nft floor", body["text"])
	assert.Equal(t, []any{"nft"}, body["tags"])

	status, body = ts.get(t, "/posts/404")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "post not found", body["error"])
}

func TestHealth(t *testing.T) {
	ts := setupServer(t)

	status, body := ts.get(t, "/health")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["posts_in_store"])
	assert.Equal(t, float64(5), body["vectors_in_index"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupServer(t)
	ts.get(t, "/search?text=hello")

	resp, err := ts.server.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "tweet_explorer_embedding_duration_seconds")
	assert.Contains(t, string(raw), "tweet_explorer_candidates")
}

func TestCORS(t *testing.T) {
	ts := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := ts.server.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
