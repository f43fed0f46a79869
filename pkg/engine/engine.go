package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"switchboard-hq/switchboard/pkg/apic/ast"
)

const tracerName = "switchboard/engine"

// Engine executes assemblies. It is safe for concurrent use.
type Engine struct {
	config    *Config
	invoker   Invoker
	scripts   ScriptRunner
	condition ConditionEvaluator
	observer  Observer
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithInvoker sets the backend invoker used by better-invoke.
func WithInvoker(inv Invoker) Option {
	return func(e *Engine) { e.invoker = inv }
}

// WithScriptRunner sets the runner used by javascript policies.
func WithScriptRunner(r ScriptRunner) Option {
	return func(e *Engine) { e.scripts = r }
}

// WithConditionEvaluator sets the evaluator used by if policies.
func WithConditionEvaluator(c ConditionEvaluator) Option {
	return func(e *Engine) { e.condition = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// New creates an engine. A nil config uses DefaultConfig.
func New(cfg *Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{config: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.observer == nil {
		e.observer = noopObserver{}
	}
	e.tracer = otel.Tracer(tracerName)
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// Execute runs the definition's assembly against execCtx.
//
// Request-time failures are reported through the Result, not the returned
// error; the error is non-nil only when execution could not start.
func (e *Engine) Execute(ctx context.Context, def *ast.Definition, execCtx *ExecutionContext) (*Result, error) {
	if execCtx == nil {
		return nil, errors.New("execution context is nil")
	}
	if def == nil || def.Assembly() == nil {
		return nil, ErrNoAssembly
	}
	if err := execCtx.Transition(StateRunning); err != nil {
		return nil, err
	}
	if e.config.EnableTrace && execCtx.Trace == nil {
		execCtx.Trace = &Trace{}
	}

	ctx, span := e.tracer.Start(ctx, "assembly",
		trace.WithAttributes(
			attribute.String("api", def.ID()),
			attribute.String("operation", execCtx.Operation.String()),
			attribute.String("request_id", execCtx.RequestID),
		))
	defer span.End()

	start := time.Now()
	r := &run{
		engine:   e,
		def:      def,
		assembly: def.Assembly(),
		ec:       execCtx,
		logger:   e.logger.With("request_id", execCtx.RequestID, "api", def.ID(), "operation", execCtx.Operation.String()),
	}
	err := r.sequence(ctx, r.assembly.Execute, "execute", 0)

	res := &Result{Caught: r.caught, PoliciesRun: r.count, Trace: execCtx.Trace}
	var ab *abort
	switch {
	case err == nil || errors.Is(err, errStop):
		if execCtx.State == StateCaught {
			_ = execCtx.Transition(StateRunning)
		}
		_ = execCtx.Transition(StateSucceeded)
		res.StatusCode = execCtx.Message.StatusCode
		if res.StatusCode == 0 {
			res.StatusCode = http.StatusOK
		}
	case errors.As(err, &ab) && ab.cancelled != nil:
		_ = execCtx.Transition(StateFailed)
		res.Err = &PolicyError{Kind: KindPolicyExecution, Path: "execute", Message: "execution cancelled", Cause: ab.cancelled}
		res.StatusCode = http.StatusServiceUnavailable
	case errors.As(err, &ab):
		final := StateFailed
		if ab.err.Kind == KindBackendTimeout && execCtx.State == StateRunning {
			final = StateTimedOut
		}
		_ = execCtx.Transition(final)
		res.Err = ab.err
		res.StatusCode = ab.err.HTTPStatus()
	default:
		_ = execCtx.Transition(StateFailed)
		res.Err = &PolicyError{Kind: KindPolicyExecution, Path: "execute", Cause: err}
		res.StatusCode = http.StatusInternalServerError
	}
	res.State = execCtx.State
	res.Duration = time.Since(start)

	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}
	span.SetAttributes(attribute.String("state", res.State.String()))
	e.observer.AssemblyExecuted(res.State, res.Duration)

	r.logger.Debug("assembly executed",
		"state", res.State.String(),
		"status", res.StatusCode,
		"policies", res.PoliciesRun,
		"duration", res.Duration)
	return res, nil
}

// run holds the per-request state of one Execute call.
type run struct {
	engine   *Engine
	def      *ast.Definition
	assembly *ast.Assembly
	ec       *ExecutionContext
	logger   *slog.Logger

	catching bool
	caught   []*PolicyError
	count    int
}

// sequence runs a policy list in order, diverting failures into the
// assembly's catch clauses.
func (r *run) sequence(ctx context.Context, policies []*ast.Policy, path string, depth int) error {
	if depth >= r.engine.config.MaxDepth {
		return &abort{err: &PolicyError{
			Kind:    KindPolicyExecution,
			Path:    path,
			Message: fmt.Sprintf("nesting exceeds maximum depth %d", r.engine.config.MaxDepth),
		}}
	}
	for i, p := range policies {
		if err := ctx.Err(); err != nil {
			return &abort{cancelled: err}
		}
		policyPath := fmt.Sprintf("%s[%d]", path, i)
		err := r.policy(ctx, p, policyPath, depth)
		if err == nil {
			continue
		}
		var ab *abort
		if errors.As(err, &ab) || errors.Is(err, errStop) {
			return err
		}
		if ctx.Err() != nil {
			return &abort{cancelled: ctx.Err()}
		}
		perr, ok := AsPolicyError(err)
		if !ok {
			perr = newPolicyError(KindPolicyExecution, p, policyPath, "", err)
		}
		if r.catching {
			return &abort{err: perr}
		}
		clause := r.assembly.FindCatch(perr.Names()...)
		if clause == nil {
			return &abort{err: perr}
		}
		if err := r.catch(ctx, clause, perr, depth); err != nil {
			return err
		}
		if perr.hardFail || !r.engine.config.ResumeAfterCatch {
			return errStop
		}
	}
	return nil
}

// catch runs a catch clause in place of the failed policy.
func (r *run) catch(ctx context.Context, clause *ast.CatchClause, perr *PolicyError, depth int) error {
	if err := r.ec.Transition(StateCaught); err != nil {
		return &abort{err: newPolicyError(KindPolicyExecution, nil, perr.Path, err.Error(), nil)}
	}
	r.ec.Err = perr
	r.caught = append(r.caught, perr)
	r.trace(TraceStep{Path: perr.Path, Kind: "catch", Title: perr.Name(), Outcome: OutcomeCaught, Details: perr.Error()})
	r.logger.Info("policy failure caught", "error", perr.Name(), "path", perr.Path)

	idx := indexOfClause(r.assembly, clause)
	r.catching = true
	err := r.sequence(ctx, clause.Execute, fmt.Sprintf("catch[%d].execute", idx), depth)
	r.catching = false
	if err != nil {
		return err
	}
	if err := r.ec.Transition(StateRunning); err != nil {
		return &abort{err: newPolicyError(KindPolicyExecution, nil, perr.Path, err.Error(), nil)}
	}
	if r.engine.config.ResumeAfterCatch && !perr.hardFail {
		r.ec.Err = nil
	}
	return nil
}

// policy executes a single policy, wrapping it in a span and trace step.
func (r *run) policy(ctx context.Context, p *ast.Policy, path string, depth int) error {
	ctx, span := r.engine.tracer.Start(ctx, "policy "+string(p.Kind),
		trace.WithAttributes(
			attribute.String("policy.kind", string(p.Kind)),
			attribute.String("policy.title", p.Title()),
			attribute.String("policy.path", path),
		))
	defer span.End()

	r.count++
	start := time.Now()
	err := r.dispatch(ctx, p, path, depth)
	elapsed := time.Since(start)

	outcome := OutcomeOK
	details := ""
	switch {
	case errors.Is(err, errSkipped):
		outcome, err = OutcomeSkipped, nil
	case errors.Is(err, errStop):
		outcome = OutcomeStopped
		span.SetAttributes(attribute.Bool("policy.stopped", true))
	case err != nil:
		outcome = OutcomeError
		details = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, details)
	}
	r.engine.observer.PolicyExecuted(p.Kind, outcome, elapsed)
	if !p.IsBranch() || outcome == OutcomeError || outcome == OutcomeStopped {
		r.trace(TraceStep{Path: path, Kind: string(p.Kind), Title: p.Title(), Outcome: outcome, Details: details, Timestamp: start, Duration: elapsed})
	}
	return err
}

func (r *run) trace(step TraceStep) {
	if r.ec.Trace != nil {
		r.ec.Trace.Add(step)
	}
}

func indexOfClause(a *ast.Assembly, clause *ast.CatchClause) int {
	for i, c := range a.Catch {
		if c == clause {
			return i
		}
	}
	return -1
}
