package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"

	"switchboard-hq/switchboard/pkg/apic/ast"
)

// errSkipped marks a policy the engine deliberately did not execute.
var errSkipped = errors.New("policy skipped")

func (r *run) dispatch(ctx context.Context, p *ast.Policy, path string, depth int) error {
	switch p.Kind {
	case ast.PolicyKindSetEnvironment:
		return nil
	case ast.PolicyKindBetterInvoke:
		return r.betterInvoke(ctx, p, path)
	case ast.PolicyKindResponseHandler:
		return r.responseHandler(p, path)
	case ast.PolicyKindOperationSwitch:
		return r.operationSwitch(ctx, p, path, depth)
	case ast.PolicyKindErrorMessageHandling:
		r.errorMessage()
		return nil
	case ast.PolicyKindJavascript:
		return r.javascript(ctx, p, path)
	case ast.PolicyKindIf:
		return r.ifPolicy(ctx, p, path, depth)
	case ast.PolicyKindOther:
		r.logger.Warn("skipping unsupported policy", "policy", p.Title(), "path", path)
		return errSkipped
	default:
		return newPolicyError(KindPolicyExecution, p, path, fmt.Sprintf("unknown policy kind %q", p.Kind), nil)
	}
}

func (r *run) betterInvoke(ctx context.Context, p *ast.Policy, path string) error {
	bi := p.BetterInvoke
	if r.engine.invoker == nil {
		return newPolicyError(KindBackendInvoke, p, path, "no invoker configured", nil)
	}

	verb := strings.ToUpper(bi.Verb)
	if verb == "" || verb == "KEEP" {
		verb = strings.ToUpper(r.ec.Request.Verb)
	}
	body := r.ec.Message.Body
	if bi.InputBody != nil {
		body = []byte(r.ec.Substitute(*bi.InputBody))
	}
	req := &InvokeRequest{
		Method:  verb,
		URL:     r.ec.Substitute(bi.TargetURL),
		Headers: r.ec.Message.Headers.Clone(),
		Body:    body,
		Timeout: r.engine.config.invokeTimeout(bi.Timeout),
	}
	if bi.Forever {
		retry := r.engine.config.Retry
		req.Retry = &retry
	}

	start := time.Now()
	resp, err := r.engine.invoker.Invoke(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			r.engine.observer.BackendInvoked("cancelled", elapsed)
			return &abort{cancelled: ctx.Err()}
		}
		if errors.Is(err, ErrAttemptTimeout) {
			r.engine.observer.BackendInvoked("timeout", elapsed)
			return newPolicyError(KindBackendTimeout, p, path,
				fmt.Sprintf("%s %s exceeded %s", req.Method, req.URL, req.Timeout), err)
		}
		r.engine.observer.BackendInvoked("error", elapsed)
		return newPolicyError(KindBackendInvoke, p, path, fmt.Sprintf("%s %s failed", req.Method, req.URL), err)
	}

	r.ec.Message.Body = resp.Body
	r.ec.Message.Headers = resp.Headers
	if r.ec.Message.Headers == nil {
		r.ec.Message.Headers = http.Header{}
	}
	r.ec.Message.StatusCode = resp.StatusCode
	r.ec.Message.StatusReason = statusReason(resp)

	if resp.StatusCode >= http.StatusBadRequest {
		r.engine.observer.BackendInvoked("http_error", elapsed)
		perr := newPolicyError(KindBackendInvoke, p, path,
			fmt.Sprintf("backend returned %d", resp.StatusCode), nil)
		perr.StatusCode = resp.StatusCode
		r.ec.Err = perr
		return nil
	}
	r.engine.observer.BackendInvoked("success", elapsed)
	r.ec.Err = nil
	return nil
}

func statusReason(resp *InvokeResponse) string {
	if _, reason, ok := strings.Cut(resp.Status, " "); ok && reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}

func (r *run) responseHandler(p *ast.Policy, path string) error {
	rh := p.ResponseHandler
	msg := &r.ec.Message

	if rh.StjsDataHolder != "" {
		r.ec.SetVariable(rh.StjsDataHolder, decodeBody(msg.Body))
	}
	if rh.ClearBody {
		msg.Body = nil
	}
	for _, kv := range rh.SetContext {
		name := strings.TrimSpace(kv.Key)
		if name == "" || strings.ContainsAny(name, " \t\r\n") {
			return newPolicyError(KindPolicyExecution, p, path, fmt.Sprintf("invalid context variable name %q", kv.Key), nil)
		}
		r.ec.SetVariable(name, r.ec.Substitute(kv.Value))
	}
	for _, kv := range rh.SetHeaders {
		if !httpguts.ValidHeaderFieldName(kv.Key) {
			return newPolicyError(KindPolicyExecution, p, path, fmt.Sprintf("invalid header name %q", kv.Key), nil)
		}
		value := r.ec.Substitute(kv.Value)
		if !httpguts.ValidHeaderFieldValue(value) {
			return newPolicyError(KindPolicyExecution, p, path, fmt.Sprintf("invalid value for header %q", kv.Key), nil)
		}
		if msg.Headers == nil {
			msg.Headers = http.Header{}
		}
		msg.Headers.Set(kv.Key, value)
	}
	if rh.SuccessCode != nil {
		msg.StatusCode = *rh.SuccessCode
		msg.StatusReason = http.StatusText(*rh.SuccessCode)
	}
	if rh.HardFail && r.ec.Err != nil {
		failed := *r.ec.Err
		failed.hardFail = true
		return &failed
	}
	if rh.Frontend {
		r.ec.Frontend = true
	}
	return nil
}

// decodeBody returns the JSON value of body, or the body as a string when
// it is not JSON.
func decodeBody(body []byte) any {
	var v any
	if len(body) > 0 && json.Unmarshal(body, &v) == nil {
		return v
	}
	return string(body)
}

func (r *run) operationSwitch(ctx context.Context, p *ast.Policy, path string, depth int) error {
	res, ok := p.OperationSwitch.Resolve(r.ec.Operation)
	if !ok {
		perr := newPolicyError(KindNoMatch, p, path,
			fmt.Sprintf("no case handles operation %q", r.ec.Operation.String()), nil)
		perr.StatusCode = http.StatusNotFound
		return perr
	}
	return r.sequence(ctx, res.Execute, fmt.Sprintf("%s.case[%d].execute", path, res.CaseIndex), depth+1)
}

func (r *run) javascript(ctx context.Context, p *ast.Policy, path string) error {
	if r.engine.scripts == nil {
		return newPolicyError(KindScriptExecution, p, path, "no script runner configured", nil)
	}
	sctx, cancel := context.WithTimeout(ctx, r.engine.config.ScriptTimeout)
	defer cancel()
	if err := r.engine.scripts.Run(sctx, p.Javascript.Source, r.ec); err != nil {
		if ctx.Err() != nil {
			return &abort{cancelled: ctx.Err()}
		}
		return newPolicyError(KindScriptExecution, p, path, "", err)
	}
	return nil
}

func (r *run) ifPolicy(ctx context.Context, p *ast.Policy, path string, depth int) error {
	ok, err := r.evaluate(ctx, p.If.Condition)
	if err != nil {
		if ctx.Err() != nil {
			return &abort{cancelled: ctx.Err()}
		}
		return newPolicyError(KindConditionEvaluation, p, path, fmt.Sprintf("condition %q", p.If.Condition), err)
	}
	if !ok {
		return nil
	}
	return r.sequence(ctx, p.If.Execute, path+".execute", depth+1)
}

func (r *run) evaluate(ctx context.Context, condition string) (bool, error) {
	switch strings.TrimSpace(condition) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if r.engine.condition == nil {
		return false, errors.New("no condition evaluator configured")
	}
	cctx, cancel := context.WithTimeout(ctx, r.engine.config.ScriptTimeout)
	defer cancel()
	return r.engine.condition.Evaluate(cctx, condition, r.ec)
}
