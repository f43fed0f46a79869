package evidence

import (
	"context"
	"io"
	"time"
)

// Record is the audit entry for one executed assembly.
type Record struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	RecordedAt time.Time `json:"recorded_at"`

	// Inbound request
	Method string `json:"method"`
	Path   string `json:"path"`

	// API is the ID of the matched definition; Operation is "verb path".
	API       string `json:"api"`
	Operation string `json:"operation"`

	// Outcome
	State       string        `json:"state"`
	StatusCode  int           `json:"status_code"`
	ErrorKind   string        `json:"error_kind,omitempty"`
	Error       string        `json:"error,omitempty"`
	Caught      []string      `json:"caught,omitempty"`
	PoliciesRun int           `json:"policies_run"`
	Duration    time.Duration `json:"duration"`

	// SHA-256 of the inbound body and the final message body.
	RequestHash  string `json:"request_hash,omitempty"`
	ResponseHash string `json:"response_hash,omitempty"`

	TraceID string `json:"trace_id,omitempty"`

	// Trace lists executed policy paths when engine tracing is enabled.
	Trace []string `json:"trace,omitempty"`
}

// Failed reports whether the assembly ended with an uncaught failure.
func (r *Record) Failed() bool {
	return r.ErrorKind != ""
}

// Query filters records. Zero values match everything.
type Query struct {
	StartTime *time.Time `json:"start_time,omitempty"` // inclusive
	EndTime   *time.Time `json:"end_time,omitempty"`   // inclusive

	RequestID string `json:"request_id,omitempty"`
	API       string `json:"api,omitempty"`
	Operation string `json:"operation,omitempty"`
	State     string `json:"state,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder orders by RecordedAt: "asc" or "desc" (default).
	SortOrder string `json:"sort_order,omitempty"`
}

// Storage persists records. Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Query returns matching records ordered by RecordedAt.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of matching records, ignoring pagination.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes matching records, ignoring pagination, and returns how
	// many were removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the backend.
	Close() error
}

// Exporter writes records in some output format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
