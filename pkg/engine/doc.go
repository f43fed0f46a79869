// Package engine executes the assembly of a parsed API definition against a
// per-request execution context.
//
// An Engine is stateless apart from its configuration and collaborators, so a
// single instance serves any number of concurrent requests. Every request owns
// its ExecutionContext exclusively; the engine never shares one between
// goroutines.
//
// # Execution model
//
// Policies run in document order. Branch policies (if, operation-switch) run
// the selected child list in place. The first failure that is not handled by
// the assembly's catch list ends execution:
//
//	Pending -> Running -> Succeeded | Failed | TimedOut
//	                   \-> Caught -> Running
//
// When a catch clause matches, its policy list runs in place of the failed
// policy. On success execution resumes with the next sibling unless
// Config.ResumeAfterCatch is false or the failure came from a hard-fail
// response handler. A failure inside a catch clause is terminal.
//
// # Collaborators
//
// Outbound calls go through an Invoker, scripts through a ScriptRunner and if
// conditions through a ConditionEvaluator. Each is an interface so callers can
// plug in the HTTP invoker and goja runtime from the sibling packages or test
// doubles.
package engine
