// Package metrics provides Prometheus metrics for the switchboard gateway.
//
// The Collector registers every metric on a private registry and is served
// by Handler. It is handed to the engine as its Observer and to the catalog
// store as a ReloadObserver, so recording happens at the source:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	eng, _ := engine.New(cfg.Engine.ToEngine(), engine.WithObserver(collector))
//	store.AddObserver(collector)
//	mux.Handle("/metrics", collector.Handler())
//
// Label values come from closed sets (policy kinds, outcomes, terminal
// states, status codes) so cardinality stays bounded.
package metrics
