package validator

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpguts"

	"switchboard-hq/switchboard/pkg/apic/ast"
	apicErrors "switchboard-hq/switchboard/pkg/apic/errors"
)

var invokeVerbs = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true, http.MethodDelete: true,
	http.MethodPatch: true, http.MethodHead: true, http.MethodOptions: true, "KEEP": true,
}

// PolicyValidator checks each policy of the tree for values the engine would reject at runtime.
type PolicyValidator struct {
	report *Report
}

// NewPolicyValidator creates a new policy validator.
func NewPolicyValidator() *PolicyValidator {
	return &PolicyValidator{report: newReport()}
}

// Validate walks the assembly, main sequence and catch bodies, and reports findings.
func (v *PolicyValidator) Validate(def *ast.Definition) *Report {
	v.report = newReport()

	a := def.Assembly()
	if a == nil {
		v.report.Errors.AddError(apicErrors.ErrorTypeValidation, "definition has no assembly", "x-ibm-configuration", def.Location)
		return v.report
	}

	_ = ast.ForEachPolicy(a, func(p *ast.Policy, depth int) error {
		v.validatePolicy(p)
		return nil
	})
	v.validateCatch(a)

	return v.report
}

func (v *PolicyValidator) validatePolicy(p *ast.Policy) {
	switch p.Kind {
	case ast.PolicyKindBetterInvoke:
		v.validateInvoke(p)
	case ast.PolicyKindResponseHandler:
		v.validateResponseHandler(p)
	case ast.PolicyKindIf:
		if strings.TrimSpace(p.If.Condition) == "" {
			v.errorf(p, "if", "condition is empty")
		}
	case ast.PolicyKindJavascript:
		if strings.TrimSpace(p.Javascript.Source) == "" {
			v.warnf(p, "javascript", "script %q has an empty source", p.Javascript.Title)
		}
	case ast.PolicyKindOperationSwitch:
		if len(p.OperationSwitch.Cases) == 0 {
			v.warnf(p, "operation-switch", "switch %q has no cases, every request will fail dispatch", p.OperationSwitch.Title)
		}
	case ast.PolicyKindOther:
		key := p.Other.Key()
		kinds := make([]string, len(ast.KnownPolicyKinds))
		for i, k := range ast.KnownPolicyKinds {
			kinds[i] = string(k)
		}
		v.report.Warnings.AddErrorWithSuggestion(apicErrors.ErrorTypeValidation,
			fmt.Sprintf("policy %q is not recognized and will be skipped", key),
			key, p.Location, apicErrors.SuggestPolicyKind(key, kinds))
	}
}

func (v *PolicyValidator) validateInvoke(p *ast.Policy) {
	inv := p.BetterInvoke
	if !invokeVerbs[strings.ToUpper(inv.Verb)] {
		v.errorf(p, "better-invoke.verb", "unsupported verb %q", inv.Verb)
	}
	if inv.Timeout == 0 {
		v.warnf(p, "better-invoke.timeout", "timeout is 0, the engine default applies")
	}

	target := inv.TargetURL
	if strings.Contains(target, "$(") {
		// Substituted at runtime; only the static part can be checked.
		target = stripVariables(target)
		if target == "" {
			return
		}
	}
	u, err := url.Parse(target)
	if err != nil {
		v.errorf(p, "better-invoke.target-url", "invalid target-url %q: %v", inv.TargetURL, err)
		return
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		v.errorf(p, "better-invoke.target-url", "unsupported scheme %q in target-url", u.Scheme)
	}
	if u.Scheme == "" && !strings.Contains(inv.TargetURL, "$(") {
		v.errorf(p, "better-invoke.target-url", "target-url %q is not absolute", inv.TargetURL)
	}
}

func (v *PolicyValidator) validateResponseHandler(p *ast.Policy) {
	rh := p.ResponseHandler
	for _, h := range rh.SetHeaders {
		if !httpguts.ValidHeaderFieldName(h.Key) {
			v.errorf(p, "response-handler.set-headers", "invalid header name %q", h.Key)
		}
		if !strings.Contains(h.Value, "$(") && !httpguts.ValidHeaderFieldValue(h.Value) {
			v.errorf(p, "response-handler.set-headers", "invalid value for header %q", h.Key)
		}
	}
	for _, kv := range rh.SetContext {
		if strings.TrimSpace(kv.Key) == "" {
			v.errorf(p, "response-handler.set-context", "context variable name is empty")
		}
	}
	if rh.SuccessCode != nil && (*rh.SuccessCode < 100 || *rh.SuccessCode > 599) {
		v.errorf(p, "response-handler.success-code", "success-code %d is not a valid HTTP status", *rh.SuccessCode)
	}
}

func (v *PolicyValidator) validateCatch(a *ast.Assembly) {
	known := make(map[string]bool, len(ast.KnownErrorNames))
	for _, n := range ast.KnownErrorNames {
		known[n] = true
	}

	for i, c := range a.Catch {
		path := fmt.Sprintf("x-ibm-configuration.assembly.catch[%d]", i)
		if len(c.Raw) > 0 {
			v.report.Warnings.AddError(apicErrors.ErrorTypeValidation,
				"catch clause shape not recognized, it will never match", path, c.Location)
			continue
		}
		for _, name := range c.Errors {
			if !known[name] {
				v.report.Warnings.AddErrorWithSuggestion(apicErrors.ErrorTypeValidation,
					fmt.Sprintf("catch clause lists unknown error %q", name), path, c.Location,
					apicErrors.SuggestFieldName(name, ast.KnownErrorNames))
			}
		}
	}
}

func (v *PolicyValidator) errorf(p *ast.Policy, path, format string, args ...interface{}) {
	v.report.Errors.AddError(apicErrors.ErrorTypeValidation, fmt.Sprintf(format, args...), path, p.Location)
}

func (v *PolicyValidator) warnf(p *ast.Policy, path, format string, args ...interface{}) {
	v.report.Warnings.AddError(apicErrors.ErrorTypeValidation, fmt.Sprintf(format, args...), path, p.Location)
}

// stripVariables removes $(name) references from s.
func stripVariables(s string) string {
	var sb strings.Builder
	for {
		start := strings.Index(s, "$(")
		if start < 0 {
			sb.WriteString(s)
			break
		}
		end := strings.Index(s[start:], ")")
		if end < 0 {
			sb.WriteString(s)
			break
		}
		sb.WriteString(s[:start])
		s = s[start+end+1:]
	}
	return sb.String()
}
