package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"switchboard-hq/switchboard/pkg/apic/ast"
	"switchboard-hq/switchboard/pkg/catalog"
	"switchboard-hq/switchboard/pkg/engine"
	"switchboard-hq/switchboard/pkg/evidence"
	"switchboard-hq/switchboard/pkg/evidence/recorder"
	"switchboard-hq/switchboard/pkg/proxy"
	"switchboard-hq/switchboard/pkg/telemetry/logging"
)

// CatalogSource returns the catalog snapshot to route against.
type CatalogSource interface {
	Current() *catalog.Catalog
}

// Executor runs an assembly. *engine.Engine implements it.
type Executor interface {
	Execute(ctx context.Context, def *ast.Definition, execCtx *engine.ExecutionContext) (*engine.Result, error)
}

// EvidenceRecorder accepts evidence records without blocking.
// *recorder.Recorder implements it.
type EvidenceRecorder interface {
	Record(*evidence.Record) bool
}

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	// Evidence receives one record per executed assembly. Optional.
	Evidence EvidenceRecorder

	// ExposeErrors includes failure details in default error bodies.
	ExposeErrors bool

	Logger *slog.Logger
}

// Gateway routes inbound requests to the operation declared by a loaded
// definition and executes that definition's assembly.
type Gateway struct {
	source   CatalogSource
	executor Executor
	opts     GatewayOptions
	logger   *slog.Logger
}

// NewGateway creates the gateway handler.
func NewGateway(source CatalogSource, executor Executor, opts GatewayOptions) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		source:   source,
		executor: executor,
		opts:     opts,
		logger:   logger.With("component", "gateway"),
	}
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cat := g.source.Current()
	if cat == nil {
		g.routeError(w, r, catalog.ErrNotLoaded)
		return
	}

	match, err := cat.Match(r.Method, r.URL.Path)
	if err != nil {
		if errors.Is(err, catalog.ErrMethodNotAllowed) {
			w.Header().Set("Allow", strings.Join(cat.AllowedMethods(r.URL.Path), ", "))
		}
		g.routeError(w, r, err)
		return
	}

	req, err := proxy.ReadRequest(r, match)
	if err != nil {
		var reqErr *proxy.RequestError
		status := http.StatusBadRequest
		if errors.As(err, &reqErr) {
			status = reqErr.StatusCode
		}
		g.logger.WarnContext(ctx, "rejecting request", "error", err)
		_ = proxy.WriteError(w, status, &engine.PolicyError{Message: err.Error()}, true)
		return
	}

	requestID := logging.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
		ctx = logging.WithRequestID(ctx, requestID)
	}
	def := match.Definition
	ctx = logging.WithOperation(ctx, def.ID(), match.Operation.String())

	ec := engine.NewExecutionContext(requestID, match.Operation, req)
	ec.Frontend = g.opts.ExposeErrors

	res, err := g.executor.Execute(ctx, def, ec)
	if err != nil {
		g.logger.ErrorContext(ctx, "assembly could not start", "error", err)
		_ = proxy.WriteError(w, http.StatusInternalServerError, nil, false)
		return
	}

	g.record(ctx, ec, res, def.ID())

	if res.Err != nil {
		g.logger.WarnContext(ctx, "assembly failed",
			"state", res.State.String(),
			"kind", string(res.Err.Kind),
			"policy_path", res.Err.Path,
			"status", res.StatusCode,
			"error", res.Err,
		)
		if err := proxy.WriteError(w, res.StatusCode, res.Err, g.opts.ExposeErrors || ec.Frontend); err != nil {
			g.logger.DebugContext(ctx, "writing error response", "error", err)
		}
		return
	}

	if err := proxy.WriteMessage(w, &ec.Message); err != nil {
		g.logger.DebugContext(ctx, "writing response", "error", err)
	}
}

func (g *Gateway) routeError(w http.ResponseWriter, r *http.Request, err error) {
	status := proxy.RouteStatus(err)
	detail := &engine.PolicyError{Kind: engine.KindNoMatch}
	switch status {
	case http.StatusNotFound:
		detail.Message = "No resources match requested URI"
	case http.StatusMethodNotAllowed:
		detail.Message = "The method is not allowed for the requested URL"
	default:
		detail.Message = "No API definitions are loaded"
	}
	g.logger.DebugContext(r.Context(), "request not routed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
	)
	_ = proxy.WriteError(w, status, detail, true)
}

func (g *Gateway) record(ctx context.Context, ec *engine.ExecutionContext, res *engine.Result, api string) {
	if g.opts.Evidence == nil {
		return
	}
	g.opts.Evidence.Record(recorder.NewRecord(ctx, ec, res, api))
}
