package engine

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"switchboard-hq/switchboard/pkg/apic/ast"
)

// Request is the inbound request as received by the gateway.
type Request struct {
	Verb       string
	Path       string
	Headers    http.Header
	Query      url.Values
	Body       []byte
	PathParams map[string]string
}

// Message is the payload being shaped into the response.
type Message struct {
	Body         []byte
	Headers      http.Header
	StatusCode   int
	StatusReason string
}

// ExecutionContext is the mutable state of one request's execution.
// It is owned by a single goroutine and never shared between requests.
type ExecutionContext struct {
	RequestID string

	// Operation is the inbound operation used for dispatch.
	Operation ast.Operation

	Request   Request
	Message   Message
	Variables map[string]any

	// Err is the current error state, set by failed policies and soft
	// backend errors.
	Err *PolicyError

	// Frontend marks the message as client facing.
	Frontend bool

	State State
	Trace *Trace
}

// NewExecutionContext creates a context for one inbound request. Headers,
// query and body are copied so the caller's values are never mutated. The
// message starts as a copy of the request.
func NewExecutionContext(requestID string, op ast.Operation, req Request) *ExecutionContext {
	r := Request{
		Verb:       req.Verb,
		Path:       req.Path,
		Headers:    cloneHeader(req.Headers),
		Query:      cloneValues(req.Query),
		Body:       cloneBytes(req.Body),
		PathParams: maps.Clone(req.PathParams),
	}
	if r.PathParams == nil {
		r.PathParams = map[string]string{}
	}
	return &ExecutionContext{
		RequestID: requestID,
		Operation: op,
		Request:   r,
		Message: Message{
			Body:    cloneBytes(r.Body),
			Headers: cloneHeader(r.Headers),
		},
		Variables: make(map[string]any),
		State:     StatePending,
	}
}

// Clone returns a deep copy of the context.
func (c *ExecutionContext) Clone() *ExecutionContext {
	out := *c
	out.Request.Headers = cloneHeader(c.Request.Headers)
	out.Request.Query = cloneValues(c.Request.Query)
	out.Request.Body = cloneBytes(c.Request.Body)
	out.Request.PathParams = maps.Clone(c.Request.PathParams)
	out.Message.Body = cloneBytes(c.Message.Body)
	out.Message.Headers = cloneHeader(c.Message.Headers)
	out.Variables = cloneVariables(c.Variables)
	if c.Err != nil {
		e := *c.Err
		out.Err = &e
	}
	if c.Trace != nil {
		out.Trace = &Trace{Steps: append([]TraceStep(nil), c.Trace.Steps...)}
	}
	return &out
}

// Transition moves the context to next, rejecting moves the state machine
// forbids.
func (c *ExecutionContext) Transition(next State) error {
	if !c.State.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.State, next)
	}
	c.State = next
	return nil
}

// SetVariable assigns a context variable.
func (c *ExecutionContext) SetVariable(name string, value any) {
	if c.Variables == nil {
		c.Variables = make(map[string]any)
	}
	c.Variables[name] = value
}

// Lookup resolves a variable reference. Built-in names under request.,
// message. and api. are resolved first, then context variables. Dotted names
// descend into map values.
func (c *ExecutionContext) Lookup(name string) (any, bool) {
	name = strings.TrimSpace(name)
	if v, ok := c.builtin(name); ok {
		return v, true
	}
	if v, ok := c.Variables[name]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(name, ".")
	if !found {
		return nil, false
	}
	v, ok := c.Variables[head]
	if !ok {
		return nil, false
	}
	for _, part := range strings.Split(rest, ".") {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		if v, ok = m[part]; !ok {
			return nil, false
		}
	}
	return v, true
}

func (c *ExecutionContext) builtin(name string) (any, bool) {
	switch name {
	case "request.id":
		return c.RequestID, true
	case "request.verb":
		return c.Request.Verb, true
	case "request.path":
		return c.Request.Path, true
	case "request.body":
		return string(c.Request.Body), true
	case "message.body":
		return string(c.Message.Body), true
	case "message.status.code":
		return c.Message.StatusCode, true
	case "message.status.reason":
		return c.Message.StatusReason, true
	case "api.operation.path":
		return c.Operation.Path, true
	case "api.operation.verb":
		return c.Operation.Verb, true
	}
	if h, ok := strings.CutPrefix(name, "request.headers."); ok {
		return c.Request.Headers.Get(h), c.Request.Headers.Get(h) != ""
	}
	if h, ok := strings.CutPrefix(name, "message.headers."); ok {
		return c.Message.Headers.Get(h), c.Message.Headers.Get(h) != ""
	}
	if q, ok := strings.CutPrefix(name, "request.query."); ok {
		return c.Request.Query.Get(q), c.Request.Query.Has(q)
	}
	if p, ok := strings.CutPrefix(name, "request.parameters."); ok {
		if v, ok := c.Request.PathParams[p]; ok {
			return v, true
		}
		return c.Request.Query.Get(p), c.Request.Query.Has(p)
	}
	return nil, false
}

var variablePattern = regexp.MustCompile(`\$\(([^()]+)\)`)

// Substitute replaces every $(name) reference in s with the resolved value.
// Unknown references become the empty string.
func (c *ExecutionContext) Substitute(s string) string {
	if !strings.Contains(s, "$(") {
		return s
	}
	return variablePattern.ReplaceAllStringFunc(s, func(ref string) string {
		v, ok := c.Lookup(ref[2 : len(ref)-1])
		if !ok {
			return ""
		}
		return FormatValue(v)
	})
}

// FormatValue renders a variable value as text. Strings are returned as is;
// structured values are encoded as JSON.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return http.Header{}
	}
	return h.Clone()
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func cloneVariables(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneVariables(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []byte:
		return cloneBytes(t)
	default:
		return v
	}
}
