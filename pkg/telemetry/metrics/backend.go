package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"switchboard-hq/switchboard/pkg/config"
)

// BackendMetrics tracks better-invoke calls.
//
// Metrics:
//   - switchboard_backend_invocations_total{outcome}
//   - switchboard_backend_invocation_duration_seconds
type BackendMetrics struct {
	invocationsTotal   *prometheus.CounterVec
	invocationDuration prometheus.Histogram
}

// NewBackendMetrics creates and registers backend metrics with the provided registry.
func NewBackendMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BackendMetrics {
	bm := &BackendMetrics{
		invocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "backend_invocations_total",
				Help:      "Total number of backend invocations by outcome",
			},
			[]string{"outcome"},
		),

		invocationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "backend_invocation_duration_seconds",
				Help:      "Duration of backend invocations including retries, in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),
	}

	registry.MustRegister(bm.invocationsTotal, bm.invocationDuration)

	return bm
}

// Record records one backend invocation.
func (bm *BackendMetrics) Record(outcome string, d time.Duration) {
	bm.invocationsTotal.WithLabelValues(outcome).Inc()
	bm.invocationDuration.Observe(d.Seconds())
}
