package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPDuration     *prometheus.HistogramVec
	OperationsTotal  *prometheus.CounterVec
	SideEffectsTotal *prometheus.CounterVec
	OutboxPublished  prometheus.Counter
	OutboxErrors     prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vendora_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		OperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vendora_operations_total",
			Help: "Orchestrated domain operations by name and outcome",
		}, []string{"operation", "outcome"}),
		SideEffectsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vendora_side_effects_total",
			Help: "Side-effect fan-out results by kind and outcome",
		}, []string{"kind", "outcome"}),
		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vendora_audit_outbox_published_total",
			Help: "Audit outbox entries published to Kafka",
		}),
		OutboxErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vendora_audit_outbox_errors_total",
			Help: "Audit outbox publish failures",
		}),
	}
}

// OperationFinished satisfies the orchestrator Recorder interface.
func (m *Metrics) OperationFinished(operation, outcome string, elapsed time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// SideEffectApplied satisfies the orchestrator Recorder interface.
func (m *Metrics) SideEffectApplied(kind, outcome string) {
	m.SideEffectsTotal.WithLabelValues(kind, outcome).Inc()
}

// OutboxRelayed satisfies the audit relay Recorder interface.
func (m *Metrics) OutboxRelayed(outcome string) {
	if outcome == "ok" {
		m.OutboxPublished.Inc()
	} else {
		m.OutboxErrors.Inc()
	}
}

// ObserveHTTP records one HTTP request.
func (m *Metrics) ObserveHTTP(route, status string, elapsed time.Duration) {
	m.HTTPDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())
}
