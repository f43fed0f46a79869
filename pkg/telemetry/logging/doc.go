// Package logging builds the gateway's structured logger.
//
// The logger is a plain *slog.Logger whose handler adds request-scoped
// fields carried on the context (request ID, definition, operation, trace
// ID) and masks sensitive values such as credential headers and bearer
// tokens.
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "request served", "status", 200)
package logging
