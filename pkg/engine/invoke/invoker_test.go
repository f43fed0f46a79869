package invoke

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"switchboard-hq/switchboard/pkg/engine"
)

func newInvoker(t *testing.T) *HTTPInvoker {
	t.Helper()
	inv, err := New(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(inv.Close)
	return inv
}

func fastRetry(attempts int) *engine.RetryConfig {
	return &engine.RetryConfig{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxElapsed:      5 * time.Second,
	}
}

func TestInvoke_ForwardsRequest(t *testing.T) {
	var gotMethod, gotBody, gotHeader, gotConn string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotHeader = r.Header.Get("X-Trace")
		gotConn = r.Header.Get("Proxy-Authorization")
		w.Header().Set("X-Backend", "orders")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7}`))
	}))
	defer srv.Close()

	inv := newInvoker(t)
	resp, err := inv.Invoke(context.Background(), &engine.InvokeRequest{
		Method: http.MethodPost,
		URL:    srv.URL + "/orders",
		Headers: http.Header{
			"X-Trace":             []string{"abc"},
			"Proxy-Authorization": []string{"secret"},
		},
		Body:    []byte(`{"item":"book"}`),
		Timeout: time.Second,
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated || string(resp.Body) != `{"id":7}` {
		t.Errorf("response = %d %s", resp.StatusCode, resp.Body)
	}
	if resp.Headers.Get("X-Backend") != "orders" {
		t.Error("response headers not copied")
	}
	if gotMethod != http.MethodPost || gotBody != `{"item":"book"}` || gotHeader != "abc" {
		t.Errorf("backend saw %s %q header %q", gotMethod, gotBody, gotHeader)
	}
	if gotConn != "" {
		t.Error("hop-by-hop header was forwarded")
	}
	if resp.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", resp.Attempts)
	}
}

func TestInvoke_ErrorStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp, err := newInvoker(t).Invoke(context.Background(), &engine.InvokeRequest{Method: http.MethodGet, URL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", resp.StatusCode)
	}
}

func TestInvoke_AttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newInvoker(t).Invoke(context.Background(), &engine.InvokeRequest{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Timeout: 50 * time.Millisecond,
	})
	if !errors.Is(err, engine.ErrAttemptTimeout) {
		t.Fatalf("Invoke() error = %v, want ErrAttemptTimeout", err)
	}
}

func TestInvoke_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := newInvoker(t).Invoke(context.Background(), &engine.InvokeRequest{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Timeout: time.Second,
		Retry:   fastRetry(5),
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Attempts != 3 {
		t.Errorf("response = %d after %d attempts, want 200 after 3", resp.StatusCode, resp.Attempts)
	}
}

func TestInvoke_RetryIsBounded(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	inv := newInvoker(t)
	resp, err := inv.Invoke(context.Background(), &engine.InvokeRequest{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Timeout: time.Second,
		Retry:   fastRetry(3),
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want last 502 response", resp.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("backend called %d times, want 3", got)
	}
	if s := inv.Stats(); s.FailedRequests != 1 || s.ConsecutiveFailures != 1 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestInvoke_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newInvoker(t).Invoke(context.Background(), &engine.InvokeRequest{
		Method:  http.MethodGet,
		URL:     url,
		Timeout: time.Second,
		Retry:   fastRetry(2),
	})
	if err == nil {
		t.Fatal("Invoke() against a closed server should fail")
	}
	if errors.Is(err, engine.ErrAttemptTimeout) {
		t.Errorf("connection refused classified as timeout: %v", err)
	}
}

func TestInvoke_CancellationReleasesCall(t *testing.T) {
	entered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-entered
		cancel()
	}()
	_, err := newInvoker(t).Invoke(ctx, &engine.InvokeRequest{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Timeout: 10 * time.Second,
		Retry:   fastRetry(5),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Invoke() error = %v, want context.Canceled", err)
	}
}

func TestInvoke_ResponseTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.MaxResponseBytes = 16
	inv, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = inv.Invoke(context.Background(), &engine.InvokeRequest{Method: http.MethodGet, URL: srv.URL, Timeout: time.Second})
	if err == nil {
		t.Fatal("oversized response should fail")
	}
}
