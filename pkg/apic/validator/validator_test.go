package validator

import (
	"context"
	"strings"
	"testing"

	"switchboard-hq/switchboard/pkg/apic/ast"
)

func intPtr(v int) *int { return &v }

func definition(policies ...*ast.Policy) *ast.Definition {
	return &ast.Definition{
		Info: ast.Info{Title: "t", Version: "1"},
		Paths: map[string]map[string]*ast.Method{
			"/orders": {"get": {}, "post": {}},
		},
		Switch: &ast.Switch{Assembly: &ast.Assembly{Execute: policies}},
	}
}

func TestPolicyValidator(t *testing.T) {
	tests := []struct {
		name       string
		policy     *ast.Policy
		wantErrors int
		wantWarns  int
	}{
		{
			name:   "valid invoke",
			policy: &ast.Policy{Kind: ast.PolicyKindBetterInvoke, BetterInvoke: &ast.BetterInvoke{TargetURL: "http://backend/orders", Timeout: 5, Verb: "get"}},
		},
		{
			name:   "invoke with variable host",
			policy: &ast.Policy{Kind: ast.PolicyKindBetterInvoke, BetterInvoke: &ast.BetterInvoke{TargetURL: "$(backend)/orders", Timeout: 5, Verb: "keep"}},
		},
		{
			name:       "invoke with bad verb and relative url",
			policy:     &ast.Policy{Kind: ast.PolicyKindBetterInvoke, BetterInvoke: &ast.BetterInvoke{TargetURL: "/orders", Timeout: 5, Verb: "fetch"}},
			wantErrors: 2,
		},
		{
			name:      "invoke without timeout",
			policy:    &ast.Policy{Kind: ast.PolicyKindBetterInvoke, BetterInvoke: &ast.BetterInvoke{TargetURL: "https://x", Verb: "post"}},
			wantWarns: 1,
		},
		{
			name: "bad header and status",
			policy: &ast.Policy{Kind: ast.PolicyKindResponseHandler, ResponseHandler: &ast.ResponseHandler{
				SetHeaders:  []ast.KeyValue{{Key: "Bad Header", Value: "x"}, {Key: "X-Ok", Value: "line\nbreak"}},
				SuccessCode: intPtr(42),
			}},
			wantErrors: 3,
		},
		{
			name:       "empty condition",
			policy:     &ast.Policy{Kind: ast.PolicyKindIf, If: &ast.If{Condition: "  "}},
			wantErrors: 1,
		},
		{
			name:      "unknown policy",
			policy:    &ast.Policy{Kind: ast.PolicyKindOther, Other: &ast.Other{Fields: ast.Extensions{{Key: "gatewayscript"}}}},
			wantWarns: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := NewPolicyValidator().Validate(definition(tt.policy))
			if got := report.Errors.Count(); got != tt.wantErrors {
				t.Errorf("errors = %d, want %d: %v", got, tt.wantErrors, report.Errors)
			}
			if got := report.Warnings.Count(); got != tt.wantWarns {
				t.Errorf("warnings = %d, want %d: %v", got, tt.wantWarns, report.Warnings)
			}
		})
	}
}

func TestPolicyValidator_Catch(t *testing.T) {
	def := definition()
	def.Switch.Assembly.Catch = []*ast.CatchClause{
		{Errors: []string{"ConnectionError", "TimeoutErorr"}},
		{Raw: ast.Extensions{{Key: "log"}}},
	}

	report := NewPolicyValidator().Validate(def)
	if report.Warnings.Count() != 2 {
		t.Fatalf("warnings = %d, want 2: %v", report.Warnings.Count(), report.Warnings)
	}
	if s := report.Warnings.Errors[0].Suggestion; !strings.Contains(s, "TimeoutError") {
		t.Errorf("suggestion = %q", s)
	}
}

func TestReferenceValidator(t *testing.T) {
	sw := &ast.Policy{Kind: ast.PolicyKindOperationSwitch, OperationSwitch: &ast.OperationSwitch{
		Title: "route",
		Cases: []*ast.Case{
			{Operations: []ast.Operation{{Path: "/orders", Verb: "get"}}},
			{Operations: []ast.Operation{{Path: "/orders", Verb: "get"}, {Path: "/missing", Verb: "get"}}},
		},
	}}

	report := NewReferenceValidator().Validate(definition(sw))
	if report.Errors.HasErrors() {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}

	var msgs []string
	for _, w := range report.Warnings.Errors {
		msgs = append(msgs, w.Message)
	}
	joined := strings.Join(msgs, "\n")
	for _, want := range []string{"shadowed by case[0]", "get /missing is not declared", "post /orders is declared but no case"} {
		if !strings.Contains(joined, want) {
			t.Errorf("warnings missing %q:\n%s", want, joined)
		}
	}
}

func TestValidator_NoAssembly(t *testing.T) {
	report := NewValidator().Validate(&ast.Definition{})
	if report.Err() == nil {
		t.Fatal("definition without assembly should fail validation")
	}
}

func TestSwaggerLinter(t *testing.T) {
	doc := []byte(`
swagger: "2.0"
info: {version: "1", title: t, description: d}
basePath: /
paths:
  /orders:
    get:
      responses:
        200:
          description: ok
x-ibm-configuration:
  assembly:
    execute: []
`)
	if err := NewSwaggerLinter().Lint(context.Background(), doc); err != nil {
		t.Fatalf("Lint() failed: %v", err)
	}

	if err := NewSwaggerLinter().Lint(context.Background(), []byte("a: [")); err == nil {
		t.Fatal("Lint() should reject malformed YAML")
	}
}
