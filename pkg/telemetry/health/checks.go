package health

import (
	"context"
	"errors"
	"fmt"

	"switchboard-hq/switchboard/pkg/catalog"
)

// CatalogCheck fails until a catalog has been loaded. A failed reload after
// a successful load does not fail the check since the last good catalog is
// still served.
func CatalogCheck(store *catalog.Store) CheckFunc {
	return func(context.Context) error {
		if store.Current() == nil {
			_, lastErr := store.Status()
			if lastErr != nil {
				return fmt.Errorf("no definitions loaded: %w", lastErr)
			}
			return errors.New("no definitions loaded")
		}
		return nil
	}
}

// Pinger is implemented by storage backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck adapts a Pinger into a check.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}
