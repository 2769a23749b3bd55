// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

// Package metrics provides Prometheus instrumentation for the service:
// HTTP endpoint latency, recommendation outcomes, and DuckDB query
// performance. All collectors are registered on the default registry and
// exposed via /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks latency per endpoint and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagecrow_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	// RecommendRequests counts recommendation requests by outcome.
	// Outcomes: "ok", "book_not_found", "not_enough_ratings", "error".
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagecrow_recommend_requests_total",
			Help: "Total recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	// RecommendCandidates observes how many candidate titles survived
	// the support and variance thresholds per request.
	RecommendCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pagecrow_recommend_candidates",
			Help:    "Number of ranked candidates per recommendation request",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	// DBQueryDuration tracks DuckDB query latency per named query.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagecrow_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// DatasetRows reports the loaded row counts per table after the
	// startup bulk load.
	DatasetRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pagecrow_dataset_rows",
			Help: "Rows loaded per table at startup",
		},
		[]string{"table"},
	)
)

// ObserveHTTPRequest records a completed HTTP request.
func ObserveHTTPRequest(path, method string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(path, method, strconv.Itoa(status)).Observe(duration.Seconds())
}

// ObserveDBQuery records a completed DuckDB query.
func ObserveDBQuery(query string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}
