// Package httpapi provides the HTTP delivery layer for the audit service.
package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request metrics.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed.",
		},
	)

	// Business metrics.
	auditPageRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_page_requests_total",
			Help: "Total number of audit log page requests.",
		},
		[]string{"category", "status"},
	)

	auditPurgedRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_purged_rows_total",
			Help: "Total number of audit log rows removed by purges.",
		},
		[]string{"category"},
	)
)

const (
	metricStatusSuccess = "success"
	metricStatusFailure = "failure"
)

// recordPageRequest records a page request outcome.
func recordPageRequest(category string, success bool) {
	s := metricStatusSuccess
	if !success {
		s = metricStatusFailure
	}
	auditPageRequestsTotal.WithLabelValues(category, s).Inc()
}

// recordPurgedRows records rows removed by a completed purge.
func recordPurgedRows(category string, rows int64) {
	auditPurgedRowsTotal.WithLabelValues(category).Add(float64(rows))
}
