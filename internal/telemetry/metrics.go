package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search augmentation outcomes.
const (
	SearchOK      = "ok"
	SearchError   = "error"
	SearchSkipped = "skipped"
)

// Metrics holds all Prometheus metrics for the NOVA gateway.
type Metrics struct {
	RequestTotal       *prometheus.CounterVec
	RequestDurationMs  *prometheus.HistogramVec
	UpstreamDurationMs *prometheus.HistogramVec
	UpstreamErrorTotal *prometheus.CounterVec
	FallbackTotal      *prometheus.CounterVec
	SearchTotal        *prometheus.CounterVec
	FilterActionTotal  *prometheus.CounterVec
}

// NewMetrics creates the gateway metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nova_request_total",
			Help: "Total number of search requests processed by the gateway.",
		}, []string{"intent", "model", "provider", "status"}),

		RequestDurationMs: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nova_request_duration_ms",
			Help:    "Total request duration in milliseconds, including upstream latency.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"intent", "provider"}),

		UpstreamDurationMs: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nova_upstream_duration_ms",
			Help:    "Latency of individual upstream calls in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"provider"}),

		UpstreamErrorTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nova_upstream_error_total",
			Help: "Upstream calls that failed, by provider and HTTP status.",
		}, []string{"provider", "status"}),

		FallbackTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nova_routing_fallback_total",
			Help: "Requests whose model was replaced by a fallback default.",
		}, []string{"reason"}),

		SearchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nova_search_augmentation_total",
			Help: "Search augmentation attempts by outcome.",
		}, []string{"result"}),

		FilterActionTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nova_filter_action_total",
			Help: "Total filter actions taken.",
		}, []string{"filter", "action"}),
	}
}

// RequestLabels holds the label values for recording a request.
type RequestLabels struct {
	Intent         string
	Model          string
	Provider       string
	Status         string
	FallbackReason string
	DurationMs     float64
}

// RecordRequest records metrics for a completed request.
func (m *Metrics) RecordRequest(labels RequestLabels) {
	m.RequestTotal.WithLabelValues(
		labels.Intent, labels.Model, labels.Provider, labels.Status,
	).Inc()

	m.RequestDurationMs.WithLabelValues(
		labels.Intent, labels.Provider,
	).Observe(labels.DurationMs)

	if labels.FallbackReason != "" {
		m.FallbackTotal.WithLabelValues(labels.FallbackReason).Inc()
	}
}

// RecordUpstream records one upstream call. status is empty on success.
func (m *Metrics) RecordUpstream(provider, status string, durationMs float64) {
	m.UpstreamDurationMs.WithLabelValues(provider).Observe(durationMs)
	if status != "" {
		m.UpstreamErrorTotal.WithLabelValues(provider, status).Inc()
	}
}

func (m *Metrics) RecordSearch(result string) {
	m.SearchTotal.WithLabelValues(result).Inc()
}

// RecordFilterAction records a filter action metric.
func (m *Metrics) RecordFilterAction(filter, action string) {
	m.FilterActionTotal.WithLabelValues(filter, action).Inc()
}
