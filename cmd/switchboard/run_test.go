package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"switchboard-hq/switchboard/pkg/config"
	"switchboard-hq/switchboard/pkg/evidence"
)

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Definitions.Dir = dir
	cfg.Evidence.Backend = "memory"
	cfg.Server.ListenAddress = "127.0.0.1:0"
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewAppServesDefinitions(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"items":[]}`)
	}))
	defer backend.Close()

	dir := t.TempDir()
	writeDefinition(t, dir, "items.yaml", "Items", "/shop", backend.URL)

	a, err := newApp(context.Background(), testConfig(t, dir), discardLogger())
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.Close()

	handler := a.server.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shop/items", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Source") != "backend" {
		t.Errorf("X-Source = %q", rec.Header().Get("X-Source"))
	}
	if rec.Body.String() != `{"items":[]}` {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/ready status = %d, body %s", rec.Code, rec.Body.String())
	}

	if err := a.recorder.Close(); err != nil {
		t.Fatalf("recorder Close() error = %v", err)
	}
	records, err := a.evidence.Query(context.Background(), &evidence.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].API != "Items@1.0.0" || records[0].State != "succeeded" {
		t.Errorf("records = %+v", records)
	}
}

func TestNewAppFailsOnBadDefinition(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "a.yaml", "A", "/a", "http://backend.local")
	bad := filepath.Join(dir, "b.yaml")
	if err := os.WriteFile(bad, []byte("swagger: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := newApp(context.Background(), testConfig(t, dir), discardLogger())
	if err == nil {
		t.Fatal("newApp() should fail")
	}
	if !strings.Contains(err.Error(), bad) {
		t.Errorf("error %q does not name %s", err, bad)
	}
}

func TestNewAppStrictValidation(t *testing.T) {
	dir := t.TempDir()
	file := writeDefinition(t, dir, "a.yaml", "A", "/a", "relative/path")

	cfg := testConfig(t, dir)
	a, err := newApp(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatalf("non-strict newApp() error = %v", err)
	}
	a.Close()

	cfg.Definitions.Strict = true
	_, err = newApp(context.Background(), cfg, discardLogger())
	if err == nil || !strings.Contains(err.Error(), file) {
		t.Errorf("strict newApp() error = %v, want failure naming %s", err, file)
	}
}

func TestNewAppWithoutEvidence(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "a.yaml", "A", "/a", "http://backend.local")

	cfg := testConfig(t, dir)
	cfg.Evidence.Enabled = false
	a, err := newApp(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.Close()
	if a.recorder != nil || a.evidence != nil || a.pruner != nil {
		t.Error("evidence components built while disabled")
	}
}

func TestApplyRunOverrides(t *testing.T) {
	cfg := config.Default()
	runFlags.definitions = "/srv/apis"
	runFlags.listen = "127.0.0.1:9000"
	runFlags.watch = true
	runFlags.logLevel = "debug"
	t.Cleanup(func() {
		runFlags.definitions, runFlags.listen, runFlags.watch, runFlags.logLevel = "", "", false, ""
	})

	applyRunOverrides(cfg)
	if cfg.Definitions.Dir != "/srv/apis" || cfg.Server.ListenAddress != "127.0.0.1:9000" ||
		!cfg.Definitions.Watch || cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("overrides not applied: %+v %+v", cfg.Definitions, cfg.Server)
	}
}
