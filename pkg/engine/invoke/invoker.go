// Package invoke performs the outbound backend calls of better-invoke
// policies over a pooled HTTP client.
package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"switchboard-hq/switchboard/pkg/engine"
)

// Headers that apply to a single connection and are never forwarded.
var hopHeaders = []string{
	"Connection",
	"Content-Length",
	"Host",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// HTTPInvoker implements engine.Invoker over net/http.
type HTTPInvoker struct {
	config Config
	client *http.Client
	logger *slog.Logger

	statsMu sync.RWMutex
	stats   Stats
}

// Stats summarizes the invoker's traffic.
type Stats struct {
	TotalRequests       int64
	FailedRequests      int64
	ConsecutiveFailures int
	LastError           error
	LastSuccess         time.Time
}

// New creates an HTTP invoker with connection pooling.
func New(cfg Config, logger *slog.Logger) (*HTTPInvoker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid invoker config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}
	return &HTTPInvoker{
		config: cfg,
		client: &http.Client{Transport: transport},
		logger: logger,
	}, nil
}

// NewWithClient creates an invoker around an existing client.
func NewWithClient(cfg Config, client *http.Client, logger *slog.Logger) *HTTPInvoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPInvoker{config: cfg, client: client, logger: logger}
}

// retryableStatus carries a 5xx response that may be retried.
type retryableStatus struct {
	resp *engine.InvokeResponse
}

func (e *retryableStatus) Error() string {
	return fmt.Sprintf("backend returned %d", e.resp.StatusCode)
}

// Invoke performs the call. Without req.Retry a single attempt is made and
// any response is returned as is. With req.Retry, transport failures,
// attempt timeouts and 5xx responses are retried with exponential backoff
// until the attempt or elapsed-time bound is reached.
func (i *HTTPInvoker) Invoke(ctx context.Context, req *engine.InvokeRequest) (*engine.InvokeResponse, error) {
	attempts := 0
	operation := func() (*engine.InvokeResponse, error) {
		attempts++
		resp, err := i.attempt(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		resp.Attempts = attempts
		if req.Retry != nil && resp.StatusCode >= http.StatusInternalServerError {
			return nil, &retryableStatus{resp: resp}
		}
		return resp, nil
	}

	if req.Retry == nil {
		resp, err := operation()
		i.record(resp, err)
		if err != nil {
			var perm *backoff.PermanentError
			if errors.As(err, &perm) {
				return nil, perm.Unwrap()
			}
		}
		return resp, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = req.Retry.InitialInterval
	b.MaxInterval = req.Retry.MaxInterval
	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(req.Retry.MaxAttempts)),
		backoff.WithMaxElapsedTime(req.Retry.MaxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			i.logger.Warn("backend call failed, retrying",
				"method", req.Method,
				"url", req.URL,
				"attempt", attempts,
				"backoff", next,
				"error", err)
		}),
	)
	var rs *retryableStatus
	if errors.As(err, &rs) {
		resp, err = rs.resp, nil
	}
	i.record(resp, err)
	return resp, err
}

// attempt performs one request bounded by req.Timeout. The body is read and
// the connection released before returning.
func (i *HTTPInvoker) attempt(ctx context.Context, req *engine.InvokeRequest) (*engine.InvokeResponse, error) {
	actx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(actx, req.Method, req.URL, body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("building request: %w", err))
	}
	httpReq.Header = forwardHeaders(req.Headers)
	if httpReq.Header.Get("User-Agent") == "" && i.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", i.config.UserAgent)
	}
	otel.GetTextMapPropagator().Inject(actx, propagation.HeaderCarrier(httpReq.Header))

	i.logger.Debug("invoking backend", "method", req.Method, "url", req.URL, "timeout", req.Timeout)
	httpResp, err := i.client.Do(httpReq)
	if err != nil {
		return nil, i.classify(ctx, actx, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, i.config.MaxResponseBytes+1))
	if err != nil {
		return nil, i.classify(ctx, actx, err)
	}
	if int64(len(data)) > i.config.MaxResponseBytes {
		return nil, backoff.Permanent(fmt.Errorf("response body exceeds %d bytes", i.config.MaxResponseBytes))
	}

	headers := httpResp.Header.Clone()
	for _, h := range hopHeaders {
		headers.Del(h)
	}
	return &engine.InvokeResponse{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    headers,
		Body:       data,
	}, nil
}

func (i *HTTPInvoker) classify(parent, attempt context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", engine.ErrAttemptTimeout, err)
	}
	return err
}

func (i *HTTPInvoker) record(resp *engine.InvokeResponse, err error) {
	i.statsMu.Lock()
	defer i.statsMu.Unlock()
	i.stats.TotalRequests++
	if err != nil || (resp != nil && resp.StatusCode >= http.StatusInternalServerError) {
		i.stats.FailedRequests++
		i.stats.ConsecutiveFailures++
		if err == nil {
			err = fmt.Errorf("backend returned %d", resp.StatusCode)
		}
		i.stats.LastError = err
		return
	}
	i.stats.ConsecutiveFailures = 0
	i.stats.LastError = nil
	i.stats.LastSuccess = time.Now()
}

// Stats returns a snapshot of the invoker's traffic counters.
func (i *HTTPInvoker) Stats() Stats {
	i.statsMu.RLock()
	defer i.statsMu.RUnlock()
	return i.stats
}

// Close releases idle connections.
func (i *HTTPInvoker) Close() {
	i.client.CloseIdleConnections()
}

func forwardHeaders(h http.Header) http.Header {
	out := h.Clone()
	if out == nil {
		out = http.Header{}
	}
	for _, name := range hopHeaders {
		out.Del(name)
	}
	return out
}
