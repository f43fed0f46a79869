package ast

// Assembly is an ordered policy sequence. Only the outermost assembly carries catch clauses.
type Assembly struct {
	Execute []*Policy
	Catch   []*CatchClause

	Extensions Extensions
	Location   Location
}

// Error names a catch clause can list. Aliases follow the names used by
// API Connect documents for the same failures.
const (
	ErrorNamePolicyExecution     = "PolicyExecutionError"
	ErrorNameBackendInvoke       = "BackendInvokeError"
	ErrorNameConnection          = "ConnectionError"
	ErrorNameBackendTimeout      = "BackendTimeoutError"
	ErrorNameTimeout             = "TimeoutError"
	ErrorNameConditionEvaluation = "ConditionEvaluationError"
	ErrorNameScriptExecution     = "ScriptExecutionError"
	ErrorNameJavaScript          = "JavaScriptError"
	ErrorNameOperationSwitch     = "OperationSwitchError"
)

// KnownErrorNames lists every name a catch clause can match.
var KnownErrorNames = []string{
	ErrorNamePolicyExecution,
	ErrorNameBackendInvoke,
	ErrorNameConnection,
	ErrorNameBackendTimeout,
	ErrorNameTimeout,
	ErrorNameConditionEvaluation,
	ErrorNameScriptExecution,
	ErrorNameJavaScript,
	ErrorNameOperationSwitch,
}

// CatchClause is one error-recovery branch of the outermost assembly.
//
// Two shapes are understood:
//
//	- errors: [ConnectionError, TimeoutError]
//	  execute: [...]
//	- default: [...]
//
// Anything else is kept in Raw and never matches.
type CatchClause struct {
	Errors  []string // Error names handled by this clause
	Default bool     // Handles every error
	Execute []*Policy

	Raw      Extensions
	Location Location
}

// Matches returns true if the clause handles an error with any of the given names.
func (c *CatchClause) Matches(names ...string) bool {
	if c.Default {
		return true
	}
	for _, handled := range c.Errors {
		for _, name := range names {
			if handled == name {
				return true
			}
		}
	}
	return false
}

// FindCatch returns the first clause handling any of names, in declaration order.
func (a *Assembly) FindCatch(names ...string) *CatchClause {
	if a == nil {
		return nil
	}
	for _, c := range a.Catch {
		if c.Matches(names...) {
			return c
		}
	}
	return nil
}

// PolicyCount returns the number of policies in the tree, nested ones included.
func (a *Assembly) PolicyCount() int {
	n := 0
	_ = ForEachPolicy(a, func(*Policy, int) error {
		n++
		return nil
	})
	return n
}
