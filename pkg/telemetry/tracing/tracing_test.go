package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"switchboard-hq/switchboard/pkg/config"
)

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{SamplerAlways, 0, false},
		{SamplerNever, 0, false},
		{SamplerRatio, 0.25, false},
		{SamplerRatio, 1.5, true},
		{"sometimes", 0, true},
	}
	for _, tt := range tests {
		_, err := createSampler(tt.strategy, tt.ratio)
		if (err != nil) != tt.wantErr {
			t.Errorf("createSampler(%q, %v) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
		}
	}
}

func TestNew_Disabled(t *testing.T) {
	if _, err := New(context.Background(), nil, "test"); err == nil {
		t.Fatal("expected error for nil config")
	}

	p, err := New(context.Background(), &config.TracingConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.Enabled() {
		t.Error("expected disabled provider")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown of disabled provider failed: %v", err)
	}
}

func TestMiddleware_RecordsStatus(t *testing.T) {
	p, err := New(context.Background(), &config.TracingConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var sawCtx bool
	handler := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawCtx = r.Context() != nil
		w.WriteHeader(http.StatusBadGateway)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

	if !sawCtx {
		t.Fatal("expected handler to run")
	}
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected status to pass through, got %d", rec.Code)
	}
}

func TestExtract_TraceID(t *testing.T) {
	const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

	otel.SetTextMapPropagator(propagation.TraceContext{})
	in := http.Header{}
	in.Set("traceparent", traceparent)
	ctx := Extract(context.Background(), in)

	if got := TraceID(ctx); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("unexpected trace id %q", got)
	}
	if !trace.SpanContextFromContext(ctx).IsSampled() {
		t.Error("expected sampled flag to be carried")
	}
	if TraceID(context.Background()) != "" {
		t.Error("expected empty trace id without span context")
	}
}
