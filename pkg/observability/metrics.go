package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ChatRequestsTotal counts chat runs by outcome
	// (answered, exhausted, error).
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragkit_chat_requests_total",
			Help: "Total number of chat requests by outcome",
		},
		[]string{"outcome"},
	)

	// ChatDuration observes end-to-end chat run latency.
	ChatDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ragkit_chat_duration_seconds",
			Help:    "Chat run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// LoopIterations counts reasoning loop iterations (model calls).
	LoopIterations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragkit_loop_iterations_total",
			Help: "Total number of reasoning loop iterations",
		},
	)

	// SegmentsIngested counts document segments stored in the index.
	SegmentsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragkit_segments_ingested_total",
			Help: "Total number of document segments ingested",
		},
	)

	// RetrievalMatches observes how many matches each retrieval returned
	// after threshold filtering.
	RetrievalMatches = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ragkit_retrieval_matches",
			Help:    "Matches returned per retrieval after score filtering",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)
)

// MetricsHandler exposes the Prometheus registry over HTTP.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
