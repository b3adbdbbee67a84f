// Package metrics exposes Prometheus collectors for the migration service.
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
	migrationPagesTotal        *prometheus.CounterVec
	migrationFetchRetriesTotal prometheus.Counter
	migrationRunsTotal         *prometheus.CounterVec
	migrationMatchesTotal      *prometheus.CounterVec
	migrationFetchDuration     prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		migrationPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "migration_pages_total",
				Help: "Total number of pages crawled, labeled by page type.",
			},
			[]string{"type"},
		)

		migrationFetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "migration_fetch_retries_total",
				Help: "Total number of fetch retry attempts.",
			},
		)

		migrationRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "migration_runs_total",
				Help: "Total number of migration runs, labeled by final status.",
			},
			[]string{"status"},
		)

		migrationMatchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "migration_matches_total",
				Help: "Total number of match decisions, labeled by reason.",
			},
			[]string{"reason"},
		)

		migrationFetchDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "migration_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage increments the crawled-page counter for a page type.
func ObservePage(pageType string) {
	migrationPagesTotal.WithLabelValues(pageType).Inc()
}

// ObserveFetchRetry counts one retry attempt.
func ObserveFetchRetry() {
	migrationFetchRetriesTotal.Inc()
}

// ObserveRun counts a completed run by final status.
func ObserveRun(status string) {
	migrationRunsTotal.WithLabelValues(status).Inc()
}

// ObserveMatch counts a match decision by reason.
func ObserveMatch(reason string) {
	migrationMatchesTotal.WithLabelValues(reason).Inc()
}

// ObserveFetchDuration records how long one page fetch took.
func ObserveFetchDuration(d time.Duration) {
	migrationFetchDuration.Observe(d.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
