package engine

import (
	"errors"
	"fmt"
	"net/http"

	"switchboard-hq/switchboard/pkg/apic/ast"
)

// Common sentinel errors
var (
	// ErrInvalidConfig indicates invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrNoAssembly indicates the definition carries no executable assembly.
	ErrNoAssembly = errors.New("definition has no assembly")

	// ErrAttemptTimeout is returned by invokers when a single attempt exceeds
	// its deadline.
	ErrAttemptTimeout = errors.New("backend attempt timed out")

	// ErrIllegalTransition indicates a state change the state machine forbids.
	ErrIllegalTransition = errors.New("illegal state transition")
)

// Sentinels matched by errors.Is against a PolicyError of the same kind.
var (
	ErrPolicyExecution     = errors.New(ast.ErrorNamePolicyExecution)
	ErrBackendInvoke       = errors.New(ast.ErrorNameBackendInvoke)
	ErrBackendTimeout      = errors.New(ast.ErrorNameBackendTimeout)
	ErrConditionEvaluation = errors.New(ast.ErrorNameConditionEvaluation)
	ErrScriptExecution     = errors.New(ast.ErrorNameScriptExecution)
	ErrNoMatch             = errors.New(ast.ErrorNameOperationSwitch)
)

// ErrorKind classifies request-time failures.
type ErrorKind string

const (
	KindPolicyExecution     ErrorKind = ast.ErrorNamePolicyExecution
	KindBackendInvoke       ErrorKind = ast.ErrorNameBackendInvoke
	KindBackendTimeout      ErrorKind = ast.ErrorNameBackendTimeout
	KindConditionEvaluation ErrorKind = ast.ErrorNameConditionEvaluation
	KindScriptExecution     ErrorKind = ast.ErrorNameScriptExecution
	KindNoMatch             ErrorKind = ast.ErrorNameOperationSwitch
)

var kindSentinels = map[ErrorKind]error{
	KindPolicyExecution:     ErrPolicyExecution,
	KindBackendInvoke:       ErrBackendInvoke,
	KindBackendTimeout:      ErrBackendTimeout,
	KindConditionEvaluation: ErrConditionEvaluation,
	KindScriptExecution:     ErrScriptExecution,
	KindNoMatch:             ErrNoMatch,
}

// Catch-clause aliases accepted for each kind.
var kindAliases = map[ErrorKind][]string{
	KindBackendInvoke:   {ast.ErrorNameConnection},
	KindBackendTimeout:  {ast.ErrorNameTimeout},
	KindScriptExecution: {ast.ErrorNameJavaScript},
}

// PolicyError is a request-time failure raised by a policy.
// It is the error state an ExecutionContext carries.
type PolicyError struct {
	Kind ErrorKind

	// Policy is the title of the raising policy.
	Policy string

	// Path locates the raising policy in the assembly, e.g.
	// "execute[0].case[1].execute[0]".
	Path string

	// StatusCode is the HTTP status associated with the failure, if any.
	StatusCode int

	Message string
	Cause   error

	hardFail bool
}

// Error returns the error message.
func (e *PolicyError) Error() string {
	msg := fmt.Sprintf("%s at %s", e.Kind, e.Path)
	if e.Policy != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Policy)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *PolicyError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's kind.
func (e *PolicyError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Name returns the catch name of the error.
func (e *PolicyError) Name() string {
	return string(e.Kind)
}

// Names returns the catch name followed by its aliases.
func (e *PolicyError) Names() []string {
	return append([]string{string(e.Kind)}, kindAliases[e.Kind]...)
}

// HardFail reports whether the error was raised by a hard-fail response
// handler.
func (e *PolicyError) HardFail() bool {
	return e.hardFail
}

// HTTPStatus maps the error to the gateway status for an uncaught failure.
// A hard-failed backend response keeps the backend's error status.
func (e *PolicyError) HTTPStatus() int {
	if e.hardFail && e.StatusCode >= http.StatusBadRequest {
		return e.StatusCode
	}
	switch e.Kind {
	case KindBackendTimeout:
		return http.StatusGatewayTimeout
	case KindBackendInvoke:
		return http.StatusBadGateway
	case KindNoMatch:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func newPolicyError(kind ErrorKind, p *ast.Policy, path, msg string, cause error) *PolicyError {
	e := &PolicyError{Kind: kind, Path: path, Message: msg, Cause: cause}
	if p != nil {
		e.Policy = p.Title()
	}
	return e
}

// AsPolicyError extracts a PolicyError from err.
func AsPolicyError(err error) (*PolicyError, bool) {
	var pe *PolicyError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// abort unwinds the whole assembly without further catch handling.
type abort struct {
	err       *PolicyError
	cancelled error
}

func (a *abort) Error() string {
	if a.cancelled != nil {
		return "execution cancelled: " + a.cancelled.Error()
	}
	return a.err.Error()
}

func (a *abort) Unwrap() error {
	if a.cancelled != nil {
		return a.cancelled
	}
	return a.err
}

// errStop ends the assembly successfully after a terminal catch clause.
var errStop = errors.New("assembly stopped")
