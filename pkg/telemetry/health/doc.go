// Package health serves the gateway's liveness, readiness and version
// endpoints.
//
// Liveness answers 200 while the process serves. Readiness runs the
// registered checks concurrently, each bounded by the checker timeout, and
// answers 503 until every check passes. The gateway registers a catalog
// check (definitions loaded) and, when evidence is enabled, a storage ping.
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("catalog", health.CatalogCheck(store))
//	health.Register(mux, checker, "/health", "/ready", info)
package health
