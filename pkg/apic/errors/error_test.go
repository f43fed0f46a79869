package errors

import (
	stderrors "errors"
	"strings"
	"testing"

	"switchboard-hq/switchboard/pkg/apic/ast"
)

func TestError_Format(t *testing.T) {
	cause := stderrors.New("boom")
	err := &Error{
		Type:       ErrorTypeStructural,
		Message:    "missing field",
		Path:       "info.title",
		Location:   ast.Location{File: "api.yaml", Line: 3, Column: 5},
		Suggestion: SuggestMissingField("title", "Orders"),
		Cause:      cause,
	}

	msg := err.Error()
	for _, want := range []string{"[structural] missing field", "(at info.title)", "api.yaml:3:5", "Add 'title: Orders'", "boom"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestErrorList(t *testing.T) {
	list := NewErrorList()
	if list.ToError() != nil {
		t.Fatal("empty list should convert to nil")
	}

	list.AddError(ErrorTypeStructural, "first", "a", ast.Location{})
	list.AddError(ErrorTypeSyntax, "second", "b", ast.Location{})

	if list.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", list.Count())
	}
	if !list.HasErrorType(ErrorTypeSyntax) || list.HasErrorType(ErrorTypeIO) {
		t.Error("HasErrorType() mismatch")
	}
	if got := list.ByType(ErrorTypeStructural); len(got) != 1 || got[0].Message != "first" {
		t.Errorf("ByType() = %v", got)
	}

	var target *Error
	if !stderrors.As(list.ToError(), &target) || target.Message != "first" {
		t.Errorf("errors.As should find the first error, got %v", target)
	}
}

func TestExtractContext(t *testing.T) {
	src := []byte("a: 1\nb: 2\nc: 3\nd: 4\n")
	ctx := ExtractContext(src, ast.Location{Line: 3, Column: 1}, 1)
	if !strings.Contains(ctx, "-> 3 | c: 3") {
		t.Errorf("context = %q", ctx)
	}
	if strings.Contains(ctx, "a: 1") {
		t.Errorf("context should not include line 1: %q", ctx)
	}
	if ExtractContext(src, ast.Location{Line: 99}, 1) != "" {
		t.Error("out of range location should yield no context")
	}
}

func TestSuggestPolicyKind(t *testing.T) {
	kinds := []string{"better-invoke", "response-handler", "if"}
	if got := SuggestPolicyKind("better-invok", kinds); got != "Did you mean 'better-invoke'?" {
		t.Errorf("got %q", got)
	}
	if got := SuggestPolicyKind("gatewayscript", kinds); got != "" {
		t.Errorf("distant kinds should not be suggested, got %q", got)
	}
}
