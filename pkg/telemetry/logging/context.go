package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// DefinitionKey is the context key for the matched definition ID.
	DefinitionKey contextKey = "definition"

	// OperationKey is the context key for the matched operation.
	OperationKey contextKey = "operation"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithOperation records the matched definition and operation on the context.
func WithOperation(ctx context.Context, definition, operation string) context.Context {
	ctx = context.WithValue(ctx, DefinitionKey, definition)
	return context.WithValue(ctx, OperationKey, operation)
}

// GetOperation retrieves the matched definition and operation.
func GetOperation(ctx context.Context) (definition, operation string) {
	definition, _ = ctx.Value(DefinitionKey).(string)
	operation, _ = ctx.Value(OperationKey).(string)
	return definition, operation
}

// contextAttrs extracts the request-scoped fields carried on ctx.
func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	if requestID := GetRequestID(ctx); requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}
	definition, operation := GetOperation(ctx)
	if definition != "" {
		attrs = append(attrs, slog.String("definition", definition))
	}
	if operation != "" {
		attrs = append(attrs, slog.String("operation", operation))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs, slog.String("trace_id", sc.TraceID().String()))
	}
	return attrs
}
