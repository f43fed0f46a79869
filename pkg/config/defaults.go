package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = ":3000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576  // 1MB
	DefaultMaxBodyBytes    = 10485760 // 10MB

	// Definitions defaults
	DefaultDefinitionsDir        = "./definitions"
	DefaultDefinitionsWatch      = false
	DefaultDebounceInterval      = 250 * time.Millisecond
	DefaultDefinitionsMaxFile    = int64(10485760) // 10MB
	DefaultDefinitionsSkipHidden = false
	DefaultDefinitionsStrict     = false

	// Engine defaults
	DefaultInvokeTimeoutUnit    = time.Second
	DefaultInvokeTimeout        = 60 * time.Second
	DefaultMaxDepth             = 64
	DefaultScriptTimeout        = time.Second
	DefaultEngineTrace          = false
	DefaultResumeAfterCatch     = true
	DefaultRetryMaxAttempts     = 5
	DefaultRetryInitialInterval = 100 * time.Millisecond
	DefaultRetryMaxInterval     = 5 * time.Second
	DefaultRetryMaxElapsed      = 30 * time.Second

	// Backend defaults
	DefaultBackendMaxIdleConns        = 100
	DefaultBackendMaxIdleConnsPerHost = 10
	DefaultBackendIdleConnTimeout     = 90 * time.Second
	DefaultBackendMaxResponseBytes    = int64(10485760) // 10MB

	// Evidence defaults
	DefaultEvidenceEnabled            = true
	DefaultEvidenceBackend            = "sqlite"
	DefaultEvidenceSQLitePath         = "data/evidence.db"
	DefaultEvidenceSQLiteDriver       = "sqlite"
	DefaultEvidenceSQLiteMaxOpenConns = 10
	DefaultEvidenceSQLiteMaxIdleConns = 5
	DefaultEvidenceSQLiteWALMode      = true
	DefaultEvidenceSQLiteBusyTimeout  = 5 * time.Second
	DefaultEvidenceAsyncBuffer        = 1000
	DefaultEvidenceWriteTimeout       = 5 * time.Second
	DefaultEvidenceRetentionDays      = 30
	DefaultEvidenceRetentionSchedule  = "0 3 * * *"
	DefaultEvidenceRetentionMax       = int64(0)

	// Telemetry defaults
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "json"
	DefaultLogAddSource        = false
	DefaultMetricsEnabled      = true
	DefaultMetricsPath         = "/metrics"
	DefaultMetricsNamespace    = "switchboard"
	DefaultTracingEnabled      = false
	DefaultTracingSampler      = "ratio"
	DefaultTracingSampleRatio  = 0.1
	DefaultTracingEndpoint     = "localhost:4317"
	DefaultTracingServiceName  = "switchboard"
	DefaultTracingTimeout      = 10 * time.Second
	DefaultHealthLivenessPath  = "/health"
	DefaultHealthReadinessPath = "/ready"
	DefaultHealthCheckTimeout  = 5 * time.Second
)

// DefaultRedactHeaders are masked in logs unless configured otherwise.
var DefaultRedactHeaders = []string{"Authorization", "Cookie", "X-Api-Key"}

// DefaultDurationBuckets are the histogram buckets, in seconds.
var DefaultDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Default returns a configuration populated with every default, including
// the boolean fields whose default is true and retention days, where zero
// is meaningful.
func Default() *Config {
	cfg := &Config{
		Definitions: DefinitionsConfig{
			Watch:      DefaultDefinitionsWatch,
			SkipHidden: DefaultDefinitionsSkipHidden,
			Strict:     DefaultDefinitionsStrict,
		},
		Engine: EngineConfig{
			Trace:            DefaultEngineTrace,
			ResumeAfterCatch: DefaultResumeAfterCatch,
		},
		Evidence: EvidenceConfig{
			Enabled:   DefaultEvidenceEnabled,
			SQLite:    SQLiteConfig{WALMode: DefaultEvidenceSQLiteWALMode},
			Retention: RetentionConfig{Days: DefaultEvidenceRetentionDays},
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{AddSource: DefaultLogAddSource},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{Enabled: DefaultTracingEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Boolean fields
// are left untouched since false is indistinguishable from unset; start from
// Default to get the true-valued booleans.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDefinitionsDefaults(&cfg.Definitions)
	applyEngineDefaults(&cfg.Engine)
	applyBackendDefaults(&cfg.Backend)
	applyEvidenceDefaults(&cfg.Evidence)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.MaxHeaderBytes == 0 {
		cfg.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

func applyDefinitionsDefaults(cfg *DefinitionsConfig) {
	if cfg.Dir == "" {
		cfg.Dir = DefaultDefinitionsDir
	}
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = DefaultDebounceInterval
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = DefaultDefinitionsMaxFile
	}
}

func applyEngineDefaults(cfg *EngineConfig) {
	if cfg.InvokeTimeoutUnit == 0 {
		cfg.InvokeTimeoutUnit = DefaultInvokeTimeoutUnit
	}
	if cfg.DefaultInvokeTimeout == 0 {
		cfg.DefaultInvokeTimeout = DefaultInvokeTimeout
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.ScriptTimeout == 0 {
		cfg.ScriptTimeout = DefaultScriptTimeout
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = DefaultRetryMaxAttempts
	}
	if cfg.Retry.InitialInterval == 0 {
		cfg.Retry.InitialInterval = DefaultRetryInitialInterval
	}
	if cfg.Retry.MaxInterval == 0 {
		cfg.Retry.MaxInterval = DefaultRetryMaxInterval
	}
	if cfg.Retry.MaxElapsed == 0 {
		cfg.Retry.MaxElapsed = DefaultRetryMaxElapsed
	}
}

func applyBackendDefaults(cfg *BackendConfig) {
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = DefaultBackendMaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = DefaultBackendMaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = DefaultBackendIdleConnTimeout
	}
	if cfg.MaxResponseBytes == 0 {
		cfg.MaxResponseBytes = DefaultBackendMaxResponseBytes
	}
}

func applyEvidenceDefaults(cfg *EvidenceConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultEvidenceBackend
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultEvidenceSQLitePath
	}
	if cfg.SQLite.Driver == "" {
		cfg.SQLite.Driver = DefaultEvidenceSQLiteDriver
	}
	if cfg.SQLite.MaxOpenConns == 0 {
		cfg.SQLite.MaxOpenConns = DefaultEvidenceSQLiteMaxOpenConns
	}
	if cfg.SQLite.MaxIdleConns == 0 {
		cfg.SQLite.MaxIdleConns = DefaultEvidenceSQLiteMaxIdleConns
	}
	if cfg.SQLite.BusyTimeout == 0 {
		cfg.SQLite.BusyTimeout = DefaultEvidenceSQLiteBusyTimeout
	}
	if cfg.AsyncBuffer == 0 {
		cfg.AsyncBuffer = DefaultEvidenceAsyncBuffer
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultEvidenceWriteTimeout
	}
	if cfg.Retention.PruneSchedule == "" {
		cfg.Retention.PruneSchedule = DefaultEvidenceRetentionSchedule
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Logging.RedactHeaders == nil {
		cfg.Logging.RedactHeaders = append([]string(nil), DefaultRedactHeaders...)
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Metrics.DurationBuckets) == 0 {
		cfg.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}

	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.Timeout == 0 {
		cfg.Tracing.Timeout = DefaultTracingTimeout
	}

	if cfg.Health.LivenessPath == "" {
		cfg.Health.LivenessPath = DefaultHealthLivenessPath
	}
	if cfg.Health.ReadinessPath == "" {
		cfg.Health.ReadinessPath = DefaultHealthReadinessPath
	}
	if cfg.Health.CheckTimeout == 0 {
		cfg.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
