// Package tracing configures OpenTelemetry for the gateway.
//
// New installs an OTLP gRPC exporter as the global tracer provider when
// tracing is enabled. The engine opens one span per policy through the
// global provider, and Middleware opens the enclosing server span after
// extracting any W3C traceparent from the inbound request. The invoker
// injects the active context into backend calls.
package tracing
