package proxy

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"switchboard-hq/switchboard/pkg/catalog"
	"switchboard-hq/switchboard/pkg/engine"
)

// RequestError is an inbound request the gateway cannot execute.
type RequestError struct {
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// ReadRequest reads the inbound request into the engine's request model,
// binding the path parameters resolved by the catalog. A body exceeding the
// server's limit yields a 413 RequestError.
func ReadRequest(r *http.Request, m *catalog.Match) (engine.Request, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return engine.Request{}, &RequestError{
					StatusCode: http.StatusRequestEntityTooLarge,
					Message:    fmt.Sprintf("request body exceeds maximum size of %d bytes", tooLarge.Limit),
				}
			}
			return engine.Request{}, &RequestError{
				StatusCode: http.StatusBadRequest,
				Message:    "failed to read request body",
				Cause:      err,
			}
		}
	}

	req := engine.Request{
		Verb:    r.Method,
		Path:    r.URL.Path,
		Headers: r.Header,
		Query:   r.URL.Query(),
		Body:    body,
	}
	if m != nil {
		req.PathParams = m.PathParams
	}
	return req, nil
}
