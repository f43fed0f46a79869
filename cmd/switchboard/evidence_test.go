package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"switchboard-hq/switchboard/pkg/cli"
	"switchboard-hq/switchboard/pkg/evidence"
	"switchboard-hq/switchboard/pkg/evidence/storage"
)

// seedEvidence writes records into a fresh SQLite database and points the
// evidence flags at it.
func seedEvidence(t *testing.T, records ...*evidence.Record) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "evidence.db")
	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{Path: dbPath})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	for _, r := range records {
		if err := store.Store(context.Background(), r); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	cfgFile = ""
	evidenceFlags = struct {
		backend   string
		db        string
		api       string
		operation string
		state     string
		errorKind string
		requestID string
		since     string
		until     string
		limit     int
		offset    int
		sort      string
		format    string
		output    string
	}{backend: "sqlite", db: dbPath, limit: 100, sort: "desc", format: "json"}
	return dbPath
}

func sampleRecords(now time.Time) []*evidence.Record {
	return []*evidence.Record{
		{ID: "r1", RequestID: "req-1", RecordedAt: now.Add(-3 * time.Hour), Method: "GET", Path: "/shop/items", API: "Items@1.0.0", Operation: "get /items", State: "succeeded", StatusCode: 200, PoliciesRun: 2},
		{ID: "r2", RequestID: "req-2", RecordedAt: now.Add(-2 * time.Hour), Method: "GET", Path: "/shop/items/1", API: "Items@1.0.0", Operation: "get /items/{id}", State: "failed", StatusCode: 502, ErrorKind: "ConnectionError", PoliciesRun: 1},
		{ID: "r3", RequestID: "req-3", RecordedAt: now.Add(-30 * time.Minute), Method: "GET", Path: "/users", API: "Users@2.0.0", Operation: "get /users", State: "succeeded", StatusCode: 200, Caught: []string{"ConnectionError"}, PoliciesRun: 3},
	}
}

func TestQueryEvidence(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		setup   func()
		wantIDs []string
		total   int64
	}{
		{name: "all newest first", setup: func() {}, wantIDs: []string{"r3", "r2", "r1"}, total: 3},
		{name: "by api", setup: func() { evidenceFlags.api = "Items@1.0.0" }, wantIDs: []string{"r2", "r1"}, total: 2},
		{name: "by state", setup: func() { evidenceFlags.state = "failed" }, wantIDs: []string{"r2"}, total: 1},
		{name: "since duration", setup: func() { evidenceFlags.since = "1h" }, wantIDs: []string{"r3"}, total: 1},
		{name: "paged", setup: func() { evidenceFlags.limit = 1; evidenceFlags.offset = 1 }, wantIDs: []string{"r2"}, total: 3},
		{name: "ascending", setup: func() { evidenceFlags.sort = "asc" }, wantIDs: []string{"r1", "r2", "r3"}, total: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seedEvidence(t, sampleRecords(now)...)
			tt.setup()

			cmd, buf := testCommand()
			if err := queryEvidence(cmd, nil); err != nil {
				t.Fatalf("queryEvidence() error = %v", err)
			}

			var got queryResult
			if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
			}
			if got.Total != tt.total {
				t.Errorf("Total = %d, want %d", got.Total, tt.total)
			}
			var ids []string
			for _, r := range got.Records {
				ids = append(ids, r.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("IDs = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestQueryEvidenceText(t *testing.T) {
	seedEvidence(t, sampleRecords(time.Now().UTC())...)
	evidenceFlags.format = "text"

	cmd, buf := testCommand()
	if err := queryEvidence(cmd, nil); err != nil {
		t.Fatalf("queryEvidence() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"STATE", "ConnectionError", "caught:ConnectionError", "Showing 1-3 of 3 records"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestQueryEvidenceInvalidFilters(t *testing.T) {
	tests := []struct {
		name  string
		setup func()
	}{
		{name: "bad state", setup: func() { evidenceFlags.state = "pending" }},
		{name: "bad sort", setup: func() { evidenceFlags.sort = "sideways" }},
		{name: "bad since", setup: func() { evidenceFlags.since = "yesterday" }},
		{name: "since after until", setup: func() { evidenceFlags.since = "2026-02-01T00:00:00Z"; evidenceFlags.until = "2026-01-01T00:00:00Z" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seedEvidence(t)
			tt.setup()
			cmd, _ := testCommand()
			if err := queryEvidence(cmd, nil); cli.ExitCode(err) != cli.ExitConfig {
				t.Errorf("ExitCode() = %d, want %d (err %v)", cli.ExitCode(err), cli.ExitConfig, err)
			}
		})
	}
}

func TestExportEvidenceCSV(t *testing.T) {
	seedEvidence(t, sampleRecords(time.Now().UTC())...)
	evidenceFlags.format = "csv"
	evidenceFlags.output = filepath.Join(t.TempDir(), "out.csv")

	cmd, _ := testCommand()
	if err := exportEvidence(cmd, nil); err != nil {
		t.Fatalf("exportEvidence() error = %v", err)
	}

	f, err := os.Open(evidenceFlags.output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header plus 3", len(rows))
	}
	if rows[1][0] != "r1" || rows[3][0] != "r3" {
		t.Errorf("rows not oldest first: %v, %v", rows[1][0], rows[3][0])
	}
}

func TestExportEvidenceJSON(t *testing.T) {
	seedEvidence(t, sampleRecords(time.Now().UTC())...)
	evidenceFlags.format = "json"
	evidenceFlags.state = "succeeded"

	cmd, buf := testCommand()
	if err := exportEvidence(cmd, nil); err != nil {
		t.Fatalf("exportEvidence() error = %v", err)
	}
	var records []*evidence.Record
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if len(records) != 2 {
		t.Errorf("exported %d records, want 2", len(records))
	}
}

func TestExportEvidenceBadFormat(t *testing.T) {
	seedEvidence(t)
	evidenceFlags.format = "xml"
	cmd, _ := testCommand()
	if err := exportEvidence(cmd, nil); cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("ExitCode() = %d, want %d", cli.ExitCode(err), cli.ExitConfig)
	}
}

func TestPruneEvidence(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "switchboard.yaml")
	if err := os.WriteFile(cfg, []byte("evidence:\n  retention:\n    days: 0\n    max_records: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dbPath := seedEvidence(t, sampleRecords(time.Now().UTC())...)
	cfgFile = cfg

	cmd, buf := testCommand()
	if err := pruneEvidence(cmd, nil); err != nil {
		t.Fatalf("pruneEvidence() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Pruned 2 records") {
		t.Errorf("output = %q", buf.String())
	}

	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{Path: dbPath})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	n, err := store.Count(context.Background(), &evidence.Query{})
	if err != nil || n != 1 {
		t.Errorf("Count() = %d, %v; want 1", n, err)
	}
	cfgFile = ""
}

func TestParseTimeFlag(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		value   string
		want    *time.Time
		wantErr bool
	}{
		{value: ""},
		{value: "2h", want: ptr(now.Add(-2 * time.Hour))},
		{value: "2026-01-02T03:04:05Z", want: ptr(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))},
		{value: "-1h", wantErr: true},
		{value: "last week", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseTimeFlag("since", tt.value, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && !got.Equal(*tt.want)) {
				t.Errorf("parseTimeFlag(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }
