// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "communitymap_db_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communitymap_db_query_errors_total",
			Help: "Total number of failed DuckDB queries",
		},
		[]string{"operation", "table"},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communitymap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "communitymap_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "communitymap_http_active_requests",
			Help: "Number of HTTP requests being served",
		},
	)

	// Map and content
	ViewportChanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "communitymap_viewport_changes_total",
			Help: "Viewport change events received from the map widget",
		},
	)

	ObjectsPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communitymap_objects_posted_total",
			Help: "Objects placed on the map",
		},
		[]string{"type", "embedded"},
	)

	CommentsPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "communitymap_comments_posted_total",
			Help: "Comments accepted",
		},
	)

	ReportedErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communitymap_reported_errors_total",
			Help: "User action failures forwarded to the error sink",
		},
		[]string{"source"},
	)

	DirectMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "communitymap_direct_messages_total",
			Help: "Direct messages sent",
		},
	)

	// Shell
	PageRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communitymap_page_renders_total",
			Help: "Server rendered pages by shell outcome",
		},
		[]string{"outcome"},
	)

	// Auth
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communitymap_auth_attempts_total",
			Help: "Login and registration attempts",
		},
		[]string{"kind", "result"},
	)

	// Realtime
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "communitymap_websocket_connections",
			Help: "Connected websocket clients",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communitymap_events_published_total",
			Help: "Domain events published to the bus",
		},
		[]string{"topic"},
	)

	EventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communitymap_events_delivered_total",
			Help: "Domain events forwarded to websocket clients",
		},
		[]string{"topic"},
	)

	// Geocoding
	GeocodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communitymap_geocode_requests_total",
			Help: "Address lookups by result",
		},
		[]string{"result"}, // hit, miss, error, open
	)

	GeocodeBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "communitymap_geocode_breaker_state",
			Help: "Geocoder circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)
)

// RecordDBQuery observes one query and counts it as failed when err is set.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordReportedError counts a failure handed to an error sink.
func RecordReportedError(source string) {
	ReportedErrors.WithLabelValues(source).Inc()
}

// RecordAuthAttempt counts a login or registration.
func RecordAuthAttempt(kind string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	AuthAttempts.WithLabelValues(kind, result).Inc()
}
