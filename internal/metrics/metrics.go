// Package metrics exposes Prometheus collectors for the readwatch service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	ingestResultsTotal         *prometheus.CounterVec
	summarizerOutcomesTotal    *prometheus.CounterVec
	summarizerDurationSeconds  prometheus.Histogram
	followChangesTotal         *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method, route and code.",
			},
			[]string{"method", "route", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 5, 30, 90},
			},
			[]string{"method", "route"},
		)

		ingestResultsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readwatch_ingest_results_total",
				Help: "Bookmark submissions, labeled by result (created, already_tracked, invalid, error).",
			},
			[]string{"result"},
		)

		summarizerOutcomesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readwatch_summarizer_outcomes_total",
				Help: "Summarization attempts, labeled by outcome status.",
			},
			[]string{"status"},
		)

		summarizerDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "readwatch_summarizer_duration_seconds",
				Help:    "Wall time of a single summarization attempt.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 45, 90},
			},
		)

		followChangesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readwatch_follow_changes_total",
				Help: "Follow graph mutations, labeled by action.",
			},
			[]string{"action"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveIngest increments the ingestion result counter.
func ObserveIngest(result string) {
	Init()
	ingestResultsTotal.WithLabelValues(result).Inc()
}

// ObserveSummary records the outcome and latency of a summarization attempt.
func ObserveSummary(status string, duration time.Duration) {
	Init()
	summarizerOutcomesTotal.WithLabelValues(status).Inc()
	summarizerDurationSeconds.Observe(duration.Seconds())
}

// ObserveFollowChange increments the follow/unfollow counter.
func ObserveFollowChange(action string) {
	Init()
	followChangesTotal.WithLabelValues(action).Inc()
}
