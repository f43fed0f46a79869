// Package script runs javascript policies and if conditions on the goja
// ECMAScript engine.
//
// Every call gets a fresh VM, so no state survives between requests. Each
// $(name) reference is compiled as a lookup into a per-call table holding
// the resolved context value, so a program is compiled once per source no
// matter what the request carries. Scripts reach the execution context
// through two globals:
//
//	context.get(name)          context.set(name, value)
//	message.body()             message.setBody(text)
//	message.header(name)       message.setHeader(name, value)
//	message.status()           message.setStatus(code)
package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sync"

	"github.com/dop251/goja"

	"switchboard-hq/switchboard/pkg/engine"
)

var referencePattern = regexp.MustCompile(`\$\(([^()]+)\)`)

// refsGlobal holds the resolved $(name) values of the running call.
const refsGlobal = "__switchboard_refs"

// Runtime implements engine.ScriptRunner and engine.ConditionEvaluator.
type Runtime struct {
	logger   *slog.Logger
	programs sync.Map // template source -> *template
}

// New creates a runtime.
func New(logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{logger: logger}
}

// Run executes source against execCtx.
func (r *Runtime) Run(ctx context.Context, source string, execCtx *engine.ExecutionContext) error {
	_, err := r.exec(ctx, source, execCtx)
	return err
}

// Evaluate evaluates condition and converts the result to a boolean using
// ECMAScript truthiness.
func (r *Runtime) Evaluate(ctx context.Context, condition string, execCtx *engine.ExecutionContext) (bool, error) {
	v, err := r.exec(ctx, condition, execCtx)
	if err != nil {
		return false, err
	}
	return v.ToBoolean(), nil
}

func (r *Runtime) exec(ctx context.Context, source string, ec *engine.ExecutionContext) (goja.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tmpl, err := r.compile(source)
	if err != nil {
		return nil, err
	}

	vm := goja.New()
	if err := r.bind(vm, ec); err != nil {
		return nil, err
	}
	if err := vm.Set(refsGlobal, resolveRefs(vm, tmpl.refs, ec)); err != nil {
		return nil, fmt.Errorf("binding references: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	v, err := vm.RunProgram(tmpl.program)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, fmt.Errorf("script interrupted: %w", ctx.Err())
		}
		return nil, err
	}
	return v, nil
}

type template struct {
	program *goja.Program
	refs    []string
}

func (r *Runtime) compile(source string) (*template, error) {
	if t, ok := r.programs.Load(source); ok {
		return t.(*template), nil
	}
	rewritten, refs := rewriteReferences(source)
	p, err := goja.Compile("policy", rewritten, false)
	if err != nil {
		return nil, fmt.Errorf("compiling script: %w", err)
	}
	t, _ := r.programs.LoadOrStore(source, &template{program: p, refs: refs})
	return t.(*template), nil
}

func (r *Runtime) cachedPrograms() int {
	n := 0
	r.programs.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (r *Runtime) bind(vm *goja.Runtime, ec *engine.ExecutionContext) error {
	ctxObj := vm.NewObject()
	_ = ctxObj.Set("get", func(name string) any {
		v, _ := ec.Lookup(name)
		return v
	})
	_ = ctxObj.Set("set", func(name string, value goja.Value) {
		ec.SetVariable(name, export(value))
	})

	msgObj := vm.NewObject()
	_ = msgObj.Set("body", func() string { return string(ec.Message.Body) })
	_ = msgObj.Set("setBody", func(value goja.Value) {
		ec.Message.Body = []byte(stringify(value))
	})
	_ = msgObj.Set("header", func(name string) string { return ec.Message.Headers.Get(name) })
	_ = msgObj.Set("setHeader", func(name, value string) {
		if ec.Message.Headers == nil {
			ec.Message.Headers = http.Header{}
		}
		ec.Message.Headers.Set(name, value)
	})
	_ = msgObj.Set("status", func() int { return ec.Message.StatusCode })
	_ = msgObj.Set("setStatus", func(code int) {
		ec.Message.StatusCode = code
		ec.Message.StatusReason = http.StatusText(code)
	})

	consoleObj := vm.NewObject()
	_ = consoleObj.Set("log", func(call goja.FunctionCall) goja.Value {
		args := make([]any, 0, len(call.Arguments))
		for _, a := range call.Arguments {
			args = append(args, a.Export())
		}
		r.logger.Debug("script log", "request_id", ec.RequestID, "args", args)
		return goja.Undefined()
	})

	for name, obj := range map[string]*goja.Object{"context": ctxObj, "message": msgObj, "console": consoleObj} {
		if err := vm.Set(name, obj); err != nil {
			return fmt.Errorf("binding %s: %w", name, err)
		}
	}
	return nil
}

// rewriteReferences turns each $(name) into an index into the reference
// table and returns the distinct names in table order.
func rewriteReferences(source string) (string, []string) {
	index := map[string]int{}
	var refs []string
	out := referencePattern.ReplaceAllStringFunc(source, func(ref string) string {
		name := ref[2 : len(ref)-1]
		i, ok := index[name]
		if !ok {
			i = len(refs)
			index[name] = i
			refs = append(refs, name)
		}
		return fmt.Sprintf("%s[%d]", refsGlobal, i)
	})
	return out, refs
}

// resolveRefs looks up names in ec. Values pass through JSON so scripts see
// plain objects, arrays and scalars. Unknown references are undefined.
func resolveRefs(vm *goja.Runtime, names []string, ec *engine.ExecutionContext) []any {
	values := make([]any, len(names))
	for i, name := range names {
		values[i] = goja.Undefined()
		v, ok := ec.Lookup(name)
		if !ok {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			continue
		}
		var plain any
		if err := json.Unmarshal(b, &plain); err != nil {
			continue
		}
		values[i] = vm.ToValue(plain)
	}
	return values
}

func export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

func stringify(v goja.Value) string {
	switch x := export(v).(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return v.String()
		}
		return string(b)
	}
}
