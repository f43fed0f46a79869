package recorder

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"switchboard-hq/switchboard/pkg/apic/ast"
	"switchboard-hq/switchboard/pkg/engine"
	"switchboard-hq/switchboard/pkg/evidence"
	"switchboard-hq/switchboard/pkg/evidence/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRecord(t *testing.T) {
	ec := engine.NewExecutionContext("req-42",
		ast.Operation{Path: "/pets/{id}", Verb: "get"},
		engine.Request{Verb: "GET", Path: "/pets/7", Headers: http.Header{}, Body: []byte("in")},
	)
	ec.Message.Body = []byte("out")

	trace := &engine.Trace{}
	trace.Add(engine.TraceStep{Path: "execute[0]", Outcome: engine.OutcomeError})
	trace.Add(engine.TraceStep{Path: "catch[0].execute[0]", Outcome: engine.OutcomeOK})

	res := &engine.Result{
		State:       engine.StateFailed,
		StatusCode:  500,
		Err:         &engine.PolicyError{Kind: engine.KindBackendInvoke, Path: "execute[1]"},
		Caught:      []*engine.PolicyError{{Kind: engine.KindBackendTimeout, Path: "execute[0]"}},
		Duration:    5 * time.Millisecond,
		PoliciesRun: 3,
		Trace:       trace,
	}

	r := NewRecord(context.Background(), ec, res, "petstore:1.0.0")

	if r.ID == "" {
		t.Error("ID is empty")
	}
	if r.RequestID != "req-42" || r.API != "petstore:1.0.0" {
		t.Errorf("RequestID/API = %q/%q", r.RequestID, r.API)
	}
	if r.Method != "GET" || r.Path != "/pets/7" {
		t.Errorf("Method/Path = %q/%q", r.Method, r.Path)
	}
	if r.Operation != "get /pets/{id}" {
		t.Errorf("Operation = %q, want %q", r.Operation, "get /pets/{id}")
	}
	if r.State != "failed" || r.StatusCode != 500 {
		t.Errorf("State/StatusCode = %q/%d", r.State, r.StatusCode)
	}
	if r.ErrorKind != string(engine.KindBackendInvoke) || r.Error == "" {
		t.Errorf("ErrorKind/Error = %q/%q", r.ErrorKind, r.Error)
	}
	if len(r.Caught) != 1 || r.Caught[0] != string(engine.KindBackendTimeout) {
		t.Errorf("Caught = %v", r.Caught)
	}
	if len(r.Trace) != 2 || r.Trace[1] != "catch[0].execute[0]" {
		t.Errorf("Trace = %v", r.Trace)
	}
	if r.RequestHash != HashContent([]byte("in")) || r.ResponseHash != HashContent([]byte("out")) {
		t.Error("body hashes do not match")
	}
	if r.TraceID != "" {
		t.Errorf("TraceID = %q, want empty without a span", r.TraceID)
	}
}

func TestNewRecord_NilResult(t *testing.T) {
	ec := engine.NewExecutionContext("req-1", ast.Operation{Path: "/", Verb: "get"}, engine.Request{Verb: "GET", Path: "/"})
	r := NewRecord(context.Background(), ec, nil, "api:1")
	if r.State != "pending" {
		t.Errorf("State = %q, want pending", r.State)
	}
}

func TestHashContent(t *testing.T) {
	if got := HashContent(nil); got != "" {
		t.Errorf("HashContent(nil) = %q, want empty", got)
	}
	const want = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got := HashContent([]byte("hello")); got != want {
		t.Errorf("HashContent(hello) = %q, want %q", got, want)
	}

	big := make([]byte, MaxHashSize+10)
	if HashContent(big) != HashContent(big[:MaxHashSize]) {
		t.Error("content beyond MaxHashSize should not affect the hash")
	}
}

func TestRecorder_WritesOnClose(t *testing.T) {
	store := storage.NewMemoryStorage()
	rec := New(store, Config{AsyncBuffer: 10, WriteTimeout: time.Second}, discardLogger())

	for _, id := range []string{"a", "b", "c"} {
		if !rec.Record(&evidence.Record{ID: id, RecordedAt: time.Now()}) {
			t.Fatalf("Record(%s) = false, want true", id)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if store.Size() != 3 {
		t.Errorf("stored %d records, want 3", store.Size())
	}

	var dropped bool
	rec.config.OnDrop = func(*evidence.Record) { dropped = true }
	if rec.Record(&evidence.Record{ID: "late"}) {
		t.Error("Record() after Close = true, want false")
	}
	if !dropped {
		t.Error("OnDrop not called after Close")
	}
	if err := rec.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

// blockingStorage holds every Store call until release is closed.
type blockingStorage struct {
	*storage.MemoryStorage
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingStorage) Store(ctx context.Context, r *evidence.Record) error {
	s.once.Do(func() { close(s.started) })
	<-s.release
	return s.MemoryStorage.Store(ctx, r)
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	store := &blockingStorage{
		MemoryStorage: storage.NewMemoryStorage(),
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}

	var mu sync.Mutex
	var dropped []string
	rec := New(store, Config{
		AsyncBuffer:  1,
		WriteTimeout: time.Second,
		OnDrop: func(r *evidence.Record) {
			mu.Lock()
			dropped = append(dropped, r.ID)
			mu.Unlock()
		},
	}, discardLogger())

	rec.Record(&evidence.Record{ID: "first"})
	<-store.started

	if !rec.Record(&evidence.Record{ID: "buffered"}) {
		t.Fatal("Record(buffered) = false, want true")
	}
	if rec.Record(&evidence.Record{ID: "overflow"}) {
		t.Fatal("Record(overflow) = true, want false")
	}

	close(store.release)
	rec.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(dropped) != 1 || dropped[0] != "overflow" {
		t.Errorf("dropped = %v, want [overflow]", dropped)
	}
	if store.Size() != 2 {
		t.Errorf("stored %d records, want 2", store.Size())
	}
}
