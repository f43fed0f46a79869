package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"switchboard-hq/switchboard/pkg/config"
	"switchboard-hq/switchboard/pkg/proxy/middleware"
	gwtls "switchboard-hq/switchboard/pkg/security/tls"
	"switchboard-hq/switchboard/pkg/telemetry/health"
	"switchboard-hq/switchboard/pkg/telemetry/logging"
	"switchboard-hq/switchboard/pkg/telemetry/metrics"
	"switchboard-hq/switchboard/pkg/telemetry/tracing"
)

// Deps are the components the server mounts. Only Gateway is required.
type Deps struct {
	// Gateway serves every path not claimed by an operational endpoint.
	Gateway http.Handler

	Health  *health.Checker
	Metrics *metrics.Collector
	Tracing *tracing.Provider
	Version health.VersionInfo
	Logger  *slog.Logger
}

// Server is the gateway's HTTP server.
type Server struct {
	config       *config.Config
	deps         Deps
	logger       *slog.Logger
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         string
}

// New creates a server. It does not listen until Start is called.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is nil")
	}
	if deps.Gateway == nil {
		return nil, errors.New("gateway handler is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:       cfg,
		deps:         deps,
		logger:       logger.With("component", "server"),
		shutdownChan: make(chan struct{}),
	}, nil
}

// Start listens on the configured address and serves until ctx is
// cancelled, SIGINT or SIGTERM arrives, or Stop is called; it then shuts
// down gracefully. It returns a listen error immediately.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	srvCfg := s.config.Server
	ln, err := net.Listen("tcp", srvCfg.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", srvCfg.ListenAddress, err)
	}

	tlsCfg, err := gwtls.NewServerConfig(ctx, &srvCfg.TLS, s.logger)
	if err != nil {
		_ = ln.Close()
		s.mu.Unlock()
		return fmt.Errorf("failed to configure TLS: %w", err)
	}
	scheme := "http"
	if tlsCfg != nil {
		ln = tls.NewListener(ln, tlsCfg)
		scheme = "https"
	}

	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    srvCfg.ReadTimeout,
		WriteTimeout:   srvCfg.WriteTimeout,
		IdleTimeout:    srvCfg.IdleTimeout,
		MaxHeaderBytes: srvCfg.MaxHeaderBytes,
		TLSConfig:      tlsCfg,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.addr = ln.Addr().String()
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting gateway server", "address", s.addr, "scheme", scheme)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
	return s.Shutdown(context.Background())
}

// Stop asks a running Start to shut down.
func (s *Server) Stop() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// Shutdown stops accepting connections and waits up to ShutdownTimeout for
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		timeout := s.config.Server.ShutdownTimeout
		s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("gateway server stopped")
	})

	return shutdownErr
}

// Handler returns the routed handler with the middleware chain applied.
// Operational endpoints take precedence over gateway paths with the same
// name.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	tel := s.config.Telemetry

	if s.deps.Health != nil {
		health.Register(mux, s.deps.Health, tel.Health.LivenessPath, tel.Health.ReadinessPath, s.deps.Version)
	}
	if s.deps.Metrics != nil && tel.Metrics.Enabled {
		mux.Handle(tel.Metrics.Path, s.deps.Metrics.Handler())
	}
	mux.Handle("/", s.deps.Gateway)

	var recorder middleware.RequestRecorder
	if s.deps.Metrics != nil {
		recorder = s.deps.Metrics
	}

	mws := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID,
	}
	if s.deps.Tracing != nil {
		mws = append(mws, s.deps.Tracing.Middleware)
	}
	mws = append(mws,
		middleware.AccessLog(s.logger, logging.NewRedactor(tel.Logging.RedactHeaders), recorder),
		middleware.BodyLimit(s.config.Server.MaxBodyBytes),
	)
	return middleware.Chain(mux, mws...)
}

// Addr returns the bound address once Start is listening.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
