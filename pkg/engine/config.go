package engine

import (
	"fmt"
	"time"
)

// Config contains configuration for the execution engine.
type Config struct {
	// InvokeTimeoutUnit is the unit of the better-invoke timeout field.
	// Default: 1s.
	InvokeTimeoutUnit time.Duration

	// DefaultInvokeTimeout bounds one attempt when the policy declares no
	// timeout. Default: 60s.
	DefaultInvokeTimeout time.Duration

	// Retry bounds better-invoke calls marked forever.
	Retry RetryConfig

	// MaxDepth is the maximum nesting of policy lists the engine will walk.
	// Default: 64.
	MaxDepth int

	// EnableTrace records a trace step for every executed policy.
	// Default: false.
	EnableTrace bool

	// ScriptTimeout bounds a single javascript policy or if condition.
	// Default: 1s.
	ScriptTimeout time.Duration

	// ResumeAfterCatch continues with the next sibling of the failed policy
	// once a catch clause completes. When false the assembly ends after the
	// catch clause. Default: true.
	ResumeAfterCatch bool
}

// RetryConfig is the bounded exponential backoff applied to forever invokes.
type RetryConfig struct {
	// MaxAttempts caps the number of attempts, including the first.
	// Default: 5.
	MaxAttempts int

	// InitialInterval is the first backoff delay. Default: 100ms.
	InitialInterval time.Duration

	// MaxInterval caps a single backoff delay. Default: 5s.
	MaxInterval time.Duration

	// MaxElapsed caps the total time spent retrying. Default: 30s.
	MaxElapsed time.Duration
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		InvokeTimeoutUnit:    time.Second,
		DefaultInvokeTimeout: 60 * time.Second,
		Retry:                DefaultRetryConfig(),
		MaxDepth:             64,
		EnableTrace:          false,
		ScriptTimeout:        time.Second,
		ResumeAfterCatch:     true,
	}
}

// DefaultRetryConfig returns the default retry bounds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsed:      30 * time.Second,
	}
}

// Validate validates the engine configuration.
func (c *Config) Validate() error {
	if c.InvokeTimeoutUnit <= 0 {
		return fmt.Errorf("%w: invoke timeout unit must be positive", ErrInvalidConfig)
	}
	if c.DefaultInvokeTimeout <= 0 {
		return fmt.Errorf("%w: default invoke timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("%w: max depth must be positive", ErrInvalidConfig)
	}
	if c.ScriptTimeout <= 0 {
		return fmt.Errorf("%w: script timeout must be positive", ErrInvalidConfig)
	}
	return c.Retry.Validate()
}

// Validate validates the retry bounds.
func (r RetryConfig) Validate() error {
	if r.MaxAttempts <= 0 {
		return fmt.Errorf("%w: retry max attempts must be positive", ErrInvalidConfig)
	}
	if r.InitialInterval <= 0 || r.MaxInterval <= 0 {
		return fmt.Errorf("%w: retry intervals must be positive", ErrInvalidConfig)
	}
	if r.InitialInterval > r.MaxInterval {
		return fmt.Errorf("%w: retry initial interval cannot exceed max interval", ErrInvalidConfig)
	}
	if r.MaxElapsed <= 0 {
		return fmt.Errorf("%w: retry max elapsed must be positive", ErrInvalidConfig)
	}
	return nil
}

// WithInvokeTimeoutUnit sets the unit of the better-invoke timeout field.
func (c *Config) WithInvokeTimeoutUnit(unit time.Duration) *Config {
	c.InvokeTimeoutUnit = unit
	return c
}

// WithDefaultInvokeTimeout sets the timeout used when a policy declares none.
func (c *Config) WithDefaultInvokeTimeout(timeout time.Duration) *Config {
	c.DefaultInvokeTimeout = timeout
	return c
}

// WithRetry sets the retry bounds for forever invokes.
func (c *Config) WithRetry(retry RetryConfig) *Config {
	c.Retry = retry
	return c
}

// WithMaxDepth sets the maximum nesting depth.
func (c *Config) WithMaxDepth(depth int) *Config {
	c.MaxDepth = depth
	return c
}

// WithTrace enables or disables execution tracing.
func (c *Config) WithTrace(enabled bool) *Config {
	c.EnableTrace = enabled
	return c
}

// WithScriptTimeout sets the timeout for scripts and conditions.
func (c *Config) WithScriptTimeout(timeout time.Duration) *Config {
	c.ScriptTimeout = timeout
	return c
}

// WithResumeAfterCatch sets whether execution resumes after a catch clause.
func (c *Config) WithResumeAfterCatch(resume bool) *Config {
	c.ResumeAfterCatch = resume
	return c
}

// invokeTimeout converts a declared timeout into a per-attempt duration.
func (c *Config) invokeTimeout(declared int) time.Duration {
	if declared <= 0 {
		return c.DefaultInvokeTimeout
	}
	return time.Duration(declared) * c.InvokeTimeoutUnit
}
