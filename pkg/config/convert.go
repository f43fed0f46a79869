package config

import (
	"switchboard-hq/switchboard/pkg/catalog"
	"switchboard-hq/switchboard/pkg/engine"
	"switchboard-hq/switchboard/pkg/engine/invoke"
)

// ToEngine converts the engine section into an engine configuration.
func (c EngineConfig) ToEngine() *engine.Config {
	return &engine.Config{
		InvokeTimeoutUnit:    c.InvokeTimeoutUnit,
		DefaultInvokeTimeout: c.DefaultInvokeTimeout,
		Retry: engine.RetryConfig{
			MaxAttempts:     c.Retry.MaxAttempts,
			InitialInterval: c.Retry.InitialInterval,
			MaxInterval:     c.Retry.MaxInterval,
			MaxElapsed:      c.Retry.MaxElapsed,
		},
		MaxDepth:         c.MaxDepth,
		EnableTrace:      c.Trace,
		ScriptTimeout:    c.ScriptTimeout,
		ResumeAfterCatch: c.ResumeAfterCatch,
	}
}

// ToInvoker converts the backend section into an invoker configuration.
func (c BackendConfig) ToInvoker() invoke.Config {
	cfg := invoke.DefaultConfig()
	cfg.MaxIdleConns = c.MaxIdleConns
	cfg.MaxIdleConnsPerHost = c.MaxIdleConnsPerHost
	cfg.IdleConnTimeout = c.IdleConnTimeout
	cfg.MaxResponseBytes = c.MaxResponseBytes
	return cfg
}

// ToLoader converts the definitions section into a loader configuration.
func (c DefinitionsConfig) ToLoader() *catalog.LoaderConfig {
	cfg := catalog.DefaultLoaderConfig()
	cfg.MaxFileSize = c.MaxFileSize
	cfg.Extensions = append([]string(nil), c.Extensions...)
	cfg.SkipHidden = c.SkipHidden
	return cfg
}

// ToWatcher converts the definitions section into a watcher configuration.
func (c DefinitionsConfig) ToWatcher() catalog.WatcherConfig {
	cfg := catalog.DefaultWatcherConfig()
	if c.DebounceInterval > 0 {
		cfg.DebounceInterval = c.DebounceInterval
	}
	return cfg
}
