package export

import (
	"fmt"

	"switchboard-hq/switchboard/pkg/evidence"
)

// Supported export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// New returns the exporter for format.
func New(format string, pretty bool) (evidence.Exporter, error) {
	switch format {
	case FormatJSON, "":
		return NewJSONExporter(pretty), nil
	case FormatCSV:
		return NewCSVExporter(true), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (must be 'json' or 'csv')", format)
	}
}
