package config

import (
	"time"

	gwtls "switchboard-hq/switchboard/pkg/security/tls"
)

// Config is the root configuration structure for switchboard.
type Config struct {
	// Server contains HTTP listener configuration.
	Server ServerConfig `yaml:"server"`

	// Definitions contains configuration for loading API definitions.
	Definitions DefinitionsConfig `yaml:"definitions"`

	// Engine contains execution engine configuration.
	Engine EngineConfig `yaml:"engine"`

	// Backend contains configuration for outbound better-invoke calls.
	Backend BackendConfig `yaml:"backend"`

	// Evidence contains configuration for execution records.
	Evidence EvidenceConfig `yaml:"evidence"`

	// Telemetry contains logging, metrics, tracing and health configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address the gateway listens on.
	// Default: ":3000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// It must cover the slowest backend call plus retries.
	// Default: 120s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits the buffered request body.
	// Default: 10485760 (10MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// ExposeErrors puts failure details in default error responses.
	// Default: false
	ExposeErrors bool `yaml:"expose_errors"`

	// TLS serves the gateway over HTTPS when enabled.
	TLS gwtls.Config `yaml:"tls"`
}

// DefinitionsConfig contains configuration for the definition catalog.
type DefinitionsConfig struct {
	// Dir is the directory tree holding one definition per file.
	// Default: "./definitions"
	Dir string `yaml:"dir"`

	// Watch reloads definitions when files change.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period before a watched reload.
	// Default: 250ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Extensions restricts loading to these extensions; empty loads every file.
	Extensions []string `yaml:"extensions"`

	// SkipHidden skips dot files and directories.
	// Default: false
	SkipHidden bool `yaml:"skip_hidden"`

	// MaxFileSize is the maximum definition file size in bytes.
	// Default: 10485760 (10MB)
	MaxFileSize int64 `yaml:"max_file_size"`

	// Strict fails startup when static validation reports errors.
	// Default: false
	Strict bool `yaml:"strict"`
}

// EngineConfig contains execution engine configuration.
type EngineConfig struct {
	// InvokeTimeoutUnit is the unit of the better-invoke timeout field.
	// Default: 1s
	InvokeTimeoutUnit time.Duration `yaml:"invoke_timeout_unit"`

	// DefaultInvokeTimeout applies when a policy declares no timeout.
	// Default: 60s
	DefaultInvokeTimeout time.Duration `yaml:"default_invoke_timeout"`

	// MaxDepth is the maximum policy nesting depth.
	// Default: 64
	MaxDepth int `yaml:"max_depth"`

	// ScriptTimeout bounds javascript policies and if conditions.
	// Default: 1s
	ScriptTimeout time.Duration `yaml:"script_timeout"`

	// Trace records every executed policy in the evidence record.
	// Default: false
	Trace bool `yaml:"trace"`

	// ResumeAfterCatch continues after a completed catch clause.
	// Default: true
	ResumeAfterCatch bool `yaml:"resume_after_catch"`

	// Retry bounds better-invoke calls marked forever.
	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig contains the bounded backoff for forever invokes.
type RetryConfig struct {
	// MaxAttempts caps attempts including the first. Default: 5
	MaxAttempts int `yaml:"max_attempts"`

	// InitialInterval is the first backoff delay. Default: 100ms
	InitialInterval time.Duration `yaml:"initial_interval"`

	// MaxInterval caps a single delay. Default: 5s
	MaxInterval time.Duration `yaml:"max_interval"`

	// MaxElapsed caps total retry time. Default: 30s
	MaxElapsed time.Duration `yaml:"max_elapsed"`
}

// BackendConfig contains the outbound HTTP pool configuration.
type BackendConfig struct {
	// MaxIdleConns is the maximum idle connections across hosts. Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the maximum idle connections per host. Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout closes idle connections. Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`

	// MaxResponseBytes caps a buffered backend response. Default: 10MB
	MaxResponseBytes int64 `yaml:"max_response_bytes"`
}

// EvidenceConfig contains configuration for execution records.
type EvidenceConfig struct {
	// Enabled controls whether execution records are written.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// AsyncBuffer is the recorder queue size. Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single store call. Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Retention contains pruning configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite storage configuration.
type SQLiteConfig struct {
	// Path is the database file path. Default: "data/evidence.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver.
	// Options: "sqlite" (modernc.org/sqlite), "sqlite3" (mattn/go-sqlite3)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// MaxOpenConns limits open connections. Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns limits idle connections. Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging. Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the lock wait timeout. Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains evidence pruning configuration.
type RetentionConfig struct {
	// Days keeps records newer than this many days; 0 keeps everything.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords keeps at most this many records; 0 means no cap.
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is the cron expression for pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchivePath, when set, receives a JSON export of records before they
	// are pruned.
	ArchivePath string `yaml:"archive_path"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactHeaders lists header names whose values are masked in logs.
	// Default: Authorization, Cookie, X-Api-Key
	RedactHeaders []string `yaml:"redact_headers"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "switchboard"
	Namespace string `yaml:"namespace"`

	// DurationBuckets are histogram buckets in seconds.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "switchboard"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the collector connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds span exports. Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the liveness probe path. Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the readiness probe path. Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout bounds a single component check. Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
