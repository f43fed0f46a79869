package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"switchboard-hq/switchboard/pkg/config"
)

// CatalogMetrics tracks definition loading and evidence backpressure.
//
// Metrics:
//   - switchboard_definitions_loaded
//   - switchboard_definition_reloads_total{result}
//   - switchboard_evidence_dropped_total
type CatalogMetrics struct {
	definitionsLoaded prometheus.Gauge
	reloadsTotal      *prometheus.CounterVec
	evidenceDropped   prometheus.Counter
}

// NewCatalogMetrics creates and registers catalog metrics with the provided registry.
func NewCatalogMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CatalogMetrics {
	cm := &CatalogMetrics{
		definitionsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "definitions_loaded",
				Help:      "Number of API definitions in the active catalog",
			},
		),

		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "definition_reloads_total",
				Help:      "Total number of definition load attempts by result",
			},
			[]string{"result"},
		),

		evidenceDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "evidence_dropped_total",
				Help:      "Total number of execution records dropped because the recorder queue was full",
			},
		),
	}

	registry.MustRegister(cm.definitionsLoaded, cm.reloadsTotal, cm.evidenceDropped)

	return cm
}

// RecordReload records a load attempt. The gauge only moves on success so a
// failed reload keeps reporting the catalog still being served.
func (cm *CatalogMetrics) RecordReload(definitions int, err error) {
	if err != nil {
		cm.reloadsTotal.WithLabelValues("error").Inc()
		return
	}
	cm.reloadsTotal.WithLabelValues("success").Inc()
	cm.definitionsLoaded.Set(float64(definitions))
}
