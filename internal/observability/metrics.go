// Package observability wires Prometheus metrics and OpenTelemetry spans
// around graph evaluation through the eval.Observer hook (§4.6, §11/K),
// grounded in the teacher's infrastructure/middleware package
// (prometheus_metrics.go, otel_budget_observer.go) but recast from
// budget tracking onto evaluation-walk tracking: nodes evaluated, nodes
// skipped by the lazy policy, and per-node latency.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/portflow/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector on top of
// prometheus/client_golang, following the teacher's
// middleware.PrometheusMetrics shape: one CounterVec/GaugeVec/
// HistogramVec per metric family, with RecordCounter/RecordGauge/
// RecordHistogram dispatching by metric name.
type PrometheusMetrics struct {
	nodeInvocations *prometheus.CounterVec
	nodeDuration    *prometheus.HistogramVec
	evalDuration    *prometheus.HistogramVec
	gauges          *prometheus.GaugeVec
}

// NewPrometheusMetrics registers the engine's metric families in the
// default Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		nodeInvocations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portflow_node_invocations_total",
				Help: "Total vertex evaluations, labeled by actor id and outcome.",
			},
			[]string{"actor", "status"},
		),
		nodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portflow_node_duration_seconds",
				Help:    "Time spent evaluating a single vertex, including any actor Invoke call.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"actor"},
		),
		evalDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portflow_eval_duration_seconds",
				Help:    "Time spent in a single Eval call.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"algorithm"},
		),
		gauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "portflow_system_state",
				Help: "Miscellaneous gauges reported by the evaluation engine.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements ports.MetricsCollector.
func (m *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	switch operation {
	case "eval":
		m.evalDuration.WithLabelValues(labels["algorithm"]).Observe(duration.Seconds())
	default:
		m.nodeDuration.WithLabelValues(labels["actor"]).Observe(duration.Seconds())
	}
}

// RecordCounter implements ports.MetricsCollector.
func (m *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "node_invocations_total":
		m.nodeInvocations.WithLabelValues(labels["actor"], labels["status"]).Add(value)
	default:
		m.gauges.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge implements ports.MetricsCollector.
func (m *PrometheusMetrics) RecordGauge(metric string, value float64, _ map[string]string) {
	m.gauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements ports.MetricsCollector.
func (m *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	if metric == "portflow_node_duration_seconds" {
		m.nodeDuration.WithLabelValues(labels["actor"]).Observe(value)
		return
	}
	m.evalDuration.WithLabelValues(labels["algorithm"]).Observe(value)
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
