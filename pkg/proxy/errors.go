package proxy

import (
	"errors"
	"net/http"

	"switchboard-hq/switchboard/pkg/catalog"
)

// RouteStatus maps a catalog routing error to its HTTP status.
func RouteStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, catalog.ErrNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
