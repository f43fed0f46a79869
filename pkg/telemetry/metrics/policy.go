package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"switchboard-hq/switchboard/pkg/config"
)

// PolicyMetrics tracks policy and assembly execution.
//
// Metrics:
//   - switchboard_policy_executions_total{kind,outcome}
//   - switchboard_policy_execution_duration_seconds{kind}
//   - switchboard_assembly_executions_total{state}
//   - switchboard_assembly_duration_seconds
type PolicyMetrics struct {
	executionsTotal   *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	assembliesTotal   *prometheus.CounterVec
	assemblyDuration  prometheus.Histogram
}

// NewPolicyMetrics creates and registers policy metrics with the provided registry.
func NewPolicyMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PolicyMetrics {
	pm := &PolicyMetrics{
		executionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "policy_executions_total",
				Help:      "Total number of executed policies by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		executionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "policy_execution_duration_seconds",
				Help:      "Duration of a single policy execution in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"kind"},
		),

		assembliesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "assembly_executions_total",
				Help:      "Total number of executed assemblies by terminal state",
			},
			[]string{"state"},
		),

		assemblyDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "assembly_duration_seconds",
				Help:      "Duration of a whole assembly execution in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),
	}

	registry.MustRegister(
		pm.executionsTotal,
		pm.executionDuration,
		pm.assembliesTotal,
		pm.assemblyDuration,
	)

	return pm
}

// RecordPolicy records one policy execution.
func (pm *PolicyMetrics) RecordPolicy(kind, outcome string, d time.Duration) {
	pm.executionsTotal.WithLabelValues(kind, outcome).Inc()
	pm.executionDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordAssembly records one finished assembly.
func (pm *PolicyMetrics) RecordAssembly(state string, d time.Duration) {
	pm.assembliesTotal.WithLabelValues(state).Inc()
	pm.assemblyDuration.Observe(d.Seconds())
}
