package catalog

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls atomic.Int32
	for range 10 {
		d.Trigger(func() { calls.Add(1) })
	}
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}

	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	time.Sleep(80 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran after Stop, total %d", got)
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.yaml", definitionYAML("Orders", "/api", "/orders"))
	s := NewStore(NewLoader(nil, nil, nil), dir, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(s, WatcherConfig{DebounceInterval: 20 * time.Millisecond, SkipHidden: true}, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Watch(ctx) }()
	defer func() {
		if err := w.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "users.yaml", definitionYAML("Users", "/users", "/"))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if c := s.Current(); c != nil && c.Len() == 2 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("catalog not reloaded, have %d definitions", s.Current().Len())
}
