// Package metrics holds the Prometheus collectors for the retrieval pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tweet_explorer"

// Pipeline stages used as the "stage" label
const (
	StageEmbedding = "embedding"
	StageIndex     = "index"
	StageStore     = "store"
	StageLLM       = "llm"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	EmbeddingLatency prometheus.Histogram
	LLMLatency       *prometheus.HistogramVec
	UpstreamErrors   *prometheus.CounterVec
	Candidates       prometheus.Histogram
	FilteredPosts    *prometheus.HistogramVec
}

var sizeBuckets = []float64{0, 1, 5, 10, 20, 50, 100, 500, 1000, 5000, 10000}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EmbeddingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_duration_seconds",
			Help:      "Query embedding latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),

		LLMLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_duration_seconds",
			Help:      "LLM completion latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120}, // up to 2 minutes for long answers
		}, []string{"provider"}),

		UpstreamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Failed pipeline stages by stage",
		}, []string{"stage"}),

		Candidates: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidates",
			Help:      "Hydrated candidates per request before filtering",
			Buckets:   sizeBuckets,
		}),

		FilteredPosts: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filtered_posts",
			Help:      "Posts surviving the filters per request",
			Buckets:   sizeBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) ObserveEmbedding(d time.Duration) {
	if m == nil {
		return
	}
	m.EmbeddingLatency.Observe(d.Seconds())
}

func (m *Metrics) ObserveLLM(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.LLMLatency.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) UpstreamError(stage string) {
	if m == nil {
		return
	}
	m.UpstreamErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveCandidates(n int) {
	if m == nil {
		return
	}
	m.Candidates.Observe(float64(n))
}

func (m *Metrics) ObserveFiltered(operation string, n int) {
	if m == nil {
		return
	}
	m.FilteredPosts.WithLabelValues(operation).Observe(float64(n))
}
