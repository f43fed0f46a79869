package main

import (
	"fmt"
	"log/slog"

	"switchboard-hq/switchboard/pkg/cli"
	"switchboard-hq/switchboard/pkg/config"
	"switchboard-hq/switchboard/pkg/evidence"
	"switchboard-hq/switchboard/pkg/evidence/storage"
)

// openEvidenceStorage opens the configured evidence backend.
func openEvidenceStorage(cfg *config.EvidenceConfig, logger *slog.Logger) (evidence.Storage, error) {
	switch cfg.Backend {
	case "sqlite":
		store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite evidence store: %w", err)
		}
		return store, nil
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, cli.NewConfigError("evidence.backend", fmt.Sprintf("unsupported backend %q (supported: sqlite, memory)", cfg.Backend))
	}
}
