package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"switchboard-hq/switchboard/pkg/evidence"
)

// CSVExporter writes records as CSV. List fields are joined with ";".
type CSVExporter struct {
	// IncludeHeader writes a header row first.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Header is the CSV column order.
var Header = []string{
	"id", "request_id", "recorded_at",
	"method", "path", "api", "operation",
	"state", "status_code", "error_kind", "error", "caught",
	"policies_run", "duration_ms",
	"request_hash", "response_hash", "trace_id",
}

// Export writes records to w.
func (e *CSVExporter) Export(ctx context.Context, records []*evidence.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
		if err := writer.Write(recordToRow(record)); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(records), err)
	}
	return nil
}

func recordToRow(record *evidence.Record) []string {
	recordedAt := ""
	if !record.RecordedAt.IsZero() {
		recordedAt = record.RecordedAt.UTC().Format(time.RFC3339Nano)
	}

	return []string{
		record.ID,
		record.RequestID,
		recordedAt,
		record.Method,
		record.Path,
		record.API,
		record.Operation,
		record.State,
		strconv.Itoa(record.StatusCode),
		record.ErrorKind,
		record.Error,
		strings.Join(record.Caught, ";"),
		strconv.Itoa(record.PoliciesRun),
		strconv.FormatFloat(float64(record.Duration)/float64(time.Millisecond), 'f', 3, 64),
		record.RequestHash,
		record.ResponseHash,
		record.TraceID,
	}
}
