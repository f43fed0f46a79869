package invoke

import (
	"fmt"
	"time"
)

// Config configures the HTTP invoker's connection pool.
type Config struct {
	// MaxIdleConns is the maximum number of idle connections across all hosts.
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum number of idle connections per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains open.
	IdleConnTimeout time.Duration

	// MaxResponseBytes caps the backend response body that is buffered.
	MaxResponseBytes int64

	// UserAgent is sent when the forwarded headers carry none.
	UserAgent string
}

// DefaultConfig returns the default invoker configuration.
func DefaultConfig() Config {
	return Config{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		MaxResponseBytes:    10 * 1024 * 1024,
		UserAgent:           "switchboard",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxIdleConns < 0 || c.MaxIdleConnsPerHost < 0 {
		return fmt.Errorf("idle connection limits cannot be negative")
	}
	if c.MaxResponseBytes <= 0 {
		return fmt.Errorf("max response bytes must be positive")
	}
	return nil
}
