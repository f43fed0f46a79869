package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no declared path matches the request URL.
	ErrNotFound = errors.New("no matching route")

	// ErrMethodNotAllowed indicates the path is declared but not for the verb.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrNotLoaded indicates the store holds no catalog yet.
	ErrNotLoaded = errors.New("catalog not loaded")
)

// LoadError represents a failure to read a definition file.
// This covers missing files, permission errors and size limits.
type LoadError struct {
	// FilePath is the path to the file that failed to load
	FilePath string

	// Message describes the error
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load definition file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load definition file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseError represents a definition file that was read but rejected by the
// parser. Cause carries the parser's error list.
type ParseError struct {
	FilePath string
	Cause    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse definition file %q: %v", e.FilePath, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ConflictError reports two definitions declaring the same route.
type ConflictError struct {
	Route  string
	Verb   string
	First  string
	Second string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("route %s %s declared by both %q and %q", e.Verb, e.Route, e.First, e.Second)
}
