package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"switchboard-hq/switchboard/pkg/engine"
	"switchboard-hq/switchboard/pkg/evidence"
)

// Config contains configuration for the evidence recorder.
type Config struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds each storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// OnDrop is called with the record when the buffer is full or the
	// recorder is closed.
	OnDrop func(*evidence.Record)
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() Config {
	return Config{
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes evidence records to storage on a background goroutine so
// request handling never blocks on the database.
type Recorder struct {
	storage    evidence.Storage
	config     Config
	recordChan chan *evidence.Record
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// New creates a recorder and starts its writer.
func New(storage evidence.Storage, config Config, logger *slog.Logger) *Recorder {
	defaults := DefaultConfig()
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = defaults.AsyncBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		recordChan: make(chan *evidence.Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     logger.With("component", "evidence.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("evidence recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record enqueues a record for writing. It never blocks: when the buffer is
// full or the recorder is closed the record is dropped and false returned.
func (r *Recorder) Record(record *evidence.Record) bool {
	select {
	case <-r.done:
		r.drop(record, "recorder closed")
		return false
	default:
	}

	select {
	case r.recordChan <- record:
		return true
	default:
		r.drop(record, "buffer full")
		return false
	}
}

// Close stops accepting records, writes everything already buffered and
// waits for the writer to exit.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down evidence recorder")
		close(r.done)
	})
	r.wg.Wait()
	return nil
}

func (r *Recorder) drop(record *evidence.Record, reason string) {
	r.logger.Warn("dropping evidence record",
		"record_id", record.ID,
		"request_id", record.RequestID,
		"reason", reason,
	)
	if r.config.OnDrop != nil {
		r.config.OnDrop(record)
	}
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					r.logger.Info("evidence channel drained")
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(record *evidence.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store evidence record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		return
	}

	duration := time.Since(start)
	r.logger.Debug("evidence recorded",
		"record_id", record.ID,
		"request_id", record.RequestID,
		"state", record.State,
		"duration_ms", duration.Milliseconds(),
	)
	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow evidence write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
		)
	}
}

// NewRecord builds the evidence record for one executed assembly. api is the
// ID of the definition that served the request.
func NewRecord(ctx context.Context, ec *engine.ExecutionContext, res *engine.Result, api string) *evidence.Record {
	record := &evidence.Record{
		ID:           uuid.New().String(),
		RequestID:    ec.RequestID,
		RecordedAt:   time.Now().UTC(),
		Method:       ec.Request.Verb,
		Path:         ec.Request.Path,
		API:          api,
		Operation:    ec.Operation.String(),
		RequestHash:  HashContent(ec.Request.Body),
		ResponseHash: HashContent(ec.Message.Body),
	}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		record.TraceID = sc.TraceID().String()
	}

	if res == nil {
		record.State = ec.State.String()
		return record
	}

	record.State = res.State.String()
	record.StatusCode = res.StatusCode
	record.PoliciesRun = res.PoliciesRun
	record.Duration = res.Duration
	record.Trace = res.Trace.Paths()

	if res.Err != nil {
		record.ErrorKind = string(res.Err.Kind)
		record.Error = res.Err.Error()
	}
	for _, caught := range res.Caught {
		record.Caught = append(record.Caught, string(caught.Kind))
	}

	return record
}
