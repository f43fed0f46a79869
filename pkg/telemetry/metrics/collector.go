package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"switchboard-hq/switchboard/pkg/apic/ast"
	"switchboard-hq/switchboard/pkg/config"
	"switchboard-hq/switchboard/pkg/engine"
)

// Collector owns every gateway metric and the registry they are served from.
// It implements engine.Observer and catalog.ReloadObserver, so the engine
// and catalog store report into it directly.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics *RequestMetrics
	policyMetrics  *PolicyMetrics
	backendMetrics *BackendMetrics
	catalogMetrics *CatalogMetrics
}

// NewCollector creates a collector. A nil registry gets a private registry
// with the Go runtime and process collectors attached.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:         cfg,
		registry:       registry,
		requestMetrics: NewRequestMetrics(cfg, registry),
		policyMetrics:  NewPolicyMetrics(cfg, registry),
		backendMetrics: NewBackendMetrics(cfg, registry),
		catalogMetrics: NewCatalogMetrics(cfg, registry),
	}
}

// Registry returns the registry metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRequest records a request served by the gateway handler.
func (c *Collector) RecordRequest(method string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.requestMetrics.Record(method, status, duration)
}

// PolicyExecuted implements engine.Observer.
func (c *Collector) PolicyExecuted(kind ast.PolicyKind, outcome string, d time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.policyMetrics.RecordPolicy(string(kind), outcome, d)
}

// BackendInvoked implements engine.Observer.
func (c *Collector) BackendInvoked(outcome string, d time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.backendMetrics.Record(outcome, d)
}

// AssemblyExecuted implements engine.Observer.
func (c *Collector) AssemblyExecuted(state engine.State, d time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.policyMetrics.RecordAssembly(state.String(), d)
}

// CatalogReloaded implements catalog.ReloadObserver.
func (c *Collector) CatalogReloaded(definitions int, err error) {
	if !c.config.Enabled {
		return
	}
	c.catalogMetrics.RecordReload(definitions, err)
}

// RecordEvidenceDropped counts execution records dropped by a full recorder.
func (c *Collector) RecordEvidenceDropped() {
	if !c.config.Enabled {
		return
	}
	c.catalogMetrics.evidenceDropped.Inc()
}
