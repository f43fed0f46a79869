// Package telemetry groups the gateway's observability subpackages.
//
//   - logging: slog construction, request-scoped attributes and header redaction
//   - metrics: Prometheus collectors for requests, policies, backends and the catalog
//   - tracing: OpenTelemetry spans for inbound requests and assembly execution
//   - health: liveness, readiness and version endpoints
//
// The subpackages are wired together by cmd/switchboard; none of them
// depends on this package.
package telemetry
