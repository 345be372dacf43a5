// Package metrics declares the Prometheus collectors exported by agora.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agora_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "route"})
)

// Interaction metrics
var (
	InteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_interactions_total",
		Help: "Total number of interaction state mutations",
	}, []string{"operation", "content_type"})

	// StateReadFailuresTotal counts reads that fell back to defaults, by cause
	// ("backend" or "decode").
	StateReadFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_state_read_failures_total",
		Help: "Total number of interaction state reads that fell back to defaults",
	}, []string{"cause"})

	ReportHookFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agora_report_hook_failures_total",
		Help: "Total number of failed report hooks",
	})
)
