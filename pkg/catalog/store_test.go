package catalog

import (
	"context"
	"sync"
	"testing"
)

type recordingObserver struct {
	mu     sync.Mutex
	counts []int
	errs   []error
}

func (o *recordingObserver) CatalogReloaded(n int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts = append(o.counts, n)
	o.errs = append(o.errs, err)
}

func TestStore_ReloadKeepsLastGood(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.yaml", definitionYAML("Orders", "/api", "/orders"))

	s := NewStore(NewLoader(nil, nil, nil), dir, nil)
	obs := &recordingObserver{}
	s.AddObserver(obs)
	if s.Current() != nil {
		t.Fatal("store should be empty before Load")
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	first := s.Current()
	if first == nil || first.Len() != 1 {
		t.Fatalf("Current() = %v", first)
	}

	writeFile(t, dir, "broken.yaml", malformedYAML)
	if err := s.Reload(context.Background()); err == nil {
		t.Fatal("Reload() should fail")
	}
	if s.Current() != first {
		t.Error("failed reload replaced the catalog")
	}
	if _, lastErr := s.Status(); lastErr == nil {
		t.Error("Status() should report the failure")
	}

	writeFile(t, dir, "broken.yaml", definitionYAML("Users", "/users", "/"))
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if s.Current() == first || s.Current().Len() != 2 {
		t.Error("successful reload did not swap the catalog")
	}
	if len(obs.counts) != 3 || obs.errs[1] == nil || obs.counts[2] != 2 {
		t.Errorf("observer saw counts %v errs %v", obs.counts, obs.errs)
	}
}

func TestStore_InitialLoadFailureLeavesStoreEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", malformedYAML)
	s := NewStore(NewLoader(nil, nil, nil), dir, nil)
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("Load() should fail")
	}
	if s.Current() != nil {
		t.Error("store should stay empty")
	}
}
