package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ReloadObserver is notified after every load attempt.
type ReloadObserver interface {
	CatalogReloaded(definitions int, err error)
}

// Store holds the current catalog and replaces it on reload.
type Store struct {
	loader *Loader
	dir    string
	logger *slog.Logger

	current atomic.Pointer[Catalog]

	// reloadMu serializes loads; readers never take it.
	reloadMu  sync.Mutex
	lastErr   error
	lastLoad  time.Time
	observers []ReloadObserver
}

// NewStore creates a store that loads definitions from dir.
func NewStore(loader *Loader, dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{loader: loader, dir: dir, logger: logger}
}

// AddObserver registers a reload observer.
func (s *Store) AddObserver(o ReloadObserver) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	s.observers = append(s.observers, o)
}

// Current returns the active catalog, or nil before the first load.
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Load performs the initial load. Any failure is returned and the store
// stays empty.
func (s *Store) Load(ctx context.Context) error {
	return s.Reload(ctx)
}

// Reload builds a new catalog and swaps it in only if loading succeeded.
// On failure the previous catalog stays active.
func (s *Store) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	c, err := s.build()
	s.lastLoad = time.Now()
	s.lastErr = err
	for _, o := range s.observers {
		n := 0
		if c != nil {
			n = c.Len()
		}
		o.CatalogReloaded(n, err)
	}
	if err != nil {
		if prev := s.current.Load(); prev != nil {
			s.logger.Error("definition reload failed, keeping previous catalog",
				"error", err,
				"version", prev.Version())
		}
		return err
	}

	prev := s.current.Swap(c)
	attrs := []any{"definitions", c.Len(), "version", c.Version(), "duration", time.Since(start)}
	if prev != nil {
		attrs = append(attrs, "previous_version", prev.Version())
	}
	s.logger.Info("catalog loaded", attrs...)
	return nil
}

func (s *Store) build() (*Catalog, error) {
	res, err := s.loader.Load(s.dir)
	if err != nil {
		return nil, err
	}
	c, err := New(res.Definitions, res.Version)
	if err != nil {
		return nil, fmt.Errorf("building route index: %w", err)
	}
	return c, nil
}

// Set installs a catalog directly, bypassing the loader.
func (s *Store) Set(c *Catalog) {
	s.current.Store(c)
}

// Status reports the outcome of the most recent load attempt.
func (s *Store) Status() (lastLoad time.Time, lastErr error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	return s.lastLoad, s.lastErr
}

// Dir returns the directory the store loads from.
func (s *Store) Dir() string {
	return s.dir
}
