package engine

import (
	"context"
	"net/http"
	"time"

	"switchboard-hq/switchboard/pkg/apic/ast"
)

// InvokeRequest describes one outbound backend call.
type InvokeRequest struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte

	// Timeout bounds a single attempt.
	Timeout time.Duration

	// Retry is non-nil when the call should be retried on failure.
	Retry *RetryConfig
}

// InvokeResponse is the backend's answer, whatever its status.
type InvokeResponse struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	Attempts   int
}

// Invoker performs outbound backend calls.
// Implementations return an error wrapping ErrAttemptTimeout when the last
// attempt hit its deadline, and any other error for transport failures.
type Invoker interface {
	Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error)
}

// ScriptRunner executes javascript policy sources against a context.
type ScriptRunner interface {
	Run(ctx context.Context, source string, execCtx *ExecutionContext) error
}

// ConditionEvaluator evaluates if-policy conditions.
type ConditionEvaluator interface {
	Evaluate(ctx context.Context, condition string, execCtx *ExecutionContext) (bool, error)
}

// Observer receives execution measurements. Implementations must be safe
// for concurrent use.
type Observer interface {
	PolicyExecuted(kind ast.PolicyKind, outcome string, d time.Duration)
	BackendInvoked(outcome string, d time.Duration)
	AssemblyExecuted(state State, d time.Duration)
}

// Result is the outcome of executing one assembly.
type Result struct {
	State      State
	StatusCode int

	// Err is the failure that ended execution, nil on success.
	Err *PolicyError

	// Caught lists the failures handled by catch clauses, in order.
	Caught []*PolicyError

	Duration    time.Duration
	PoliciesRun int
	Trace       *Trace
}

// Succeeded reports whether the assembly completed without an uncaught
// failure.
func (r *Result) Succeeded() bool {
	return r.State == StateSucceeded
}

type noopObserver struct{}

func (noopObserver) PolicyExecuted(ast.PolicyKind, string, time.Duration) {}
func (noopObserver) BackendInvoked(string, time.Duration)                 {}
func (noopObserver) AssemblyExecuted(State, time.Duration)                {}
