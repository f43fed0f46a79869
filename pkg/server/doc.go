// Package server runs the gateway's HTTP listener.
//
// The server mounts the operational endpoints (liveness, readiness,
// version and Prometheus metrics) next to the gateway handler, which
// receives every other path, and wraps the whole mux in the middleware
// chain from pkg/proxy/middleware.
//
// # Basic Usage
//
//	srv, err := server.New(cfg, server.Deps{
//	    Gateway: handlers.NewGateway(store, eng, handlers.GatewayOptions{Evidence: rec}),
//	    Health:  checker,
//	    Metrics: collector,
//	    Tracing: provider,
//	    Logger:  logger,
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
//
// # Shutdown
//
// Start blocks until the context is cancelled, SIGINT or SIGTERM arrives or
// Stop is called, then drains in-flight requests for at most
// server.shutdown_timeout.
package server
