package ast

import (
	"errors"
	"reflect"
	"testing"
)

func named(kind PolicyKind, title string, children ...*Policy) *Policy {
	switch kind {
	case PolicyKindIf:
		return &Policy{Kind: kind, If: &If{Condition: title, Execute: children}}
	case PolicyKindJavascript:
		return &Policy{Kind: kind, Javascript: &Javascript{Title: title}}
	default:
		return &Policy{Kind: PolicyKindOther, Other: &Other{Fields: Extensions{{Key: title}}}}
	}
}

func testTree() *Assembly {
	return &Assembly{
		Execute: []*Policy{
			named(PolicyKindJavascript, "a"),
			{Kind: PolicyKindOperationSwitch, OperationSwitch: &OperationSwitch{
				Title: "sw",
				Cases: []*Case{
					{Execute: []*Policy{named(PolicyKindJavascript, "b"), named(PolicyKindIf, "cond", named(PolicyKindJavascript, "c"))}},
					{Execute: []*Policy{named(PolicyKindJavascript, "d")}},
				},
			}},
			named(PolicyKindJavascript, "e"),
		},
		Catch: []*CatchClause{{Default: true, Execute: []*Policy{named(PolicyKindJavascript, "f")}}},
	}
}

func TestForEachPolicy_PreOrder(t *testing.T) {
	var order []string
	var depths []int
	err := ForEachPolicy(testTree(), func(p *Policy, depth int) error {
		order = append(order, p.Title())
		depths = append(depths, depth)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachPolicy() failed: %v", err)
	}

	wantOrder := []string{"a", "sw", "b", "if", "c", "d", "e", "f"}
	wantDepths := []int{0, 0, 1, 1, 2, 1, 0, 0}
	if !reflect.DeepEqual(order, wantOrder) {
		t.Errorf("order = %v, want %v", order, wantOrder)
	}
	if !reflect.DeepEqual(depths, wantDepths) {
		t.Errorf("depths = %v, want %v", depths, wantDepths)
	}
}

func TestWalk_SkipChildren(t *testing.T) {
	var order []string
	err := Walk(testTree().Execute, VisitorFunc(func(p *Policy, depth int) error {
		order = append(order, p.Title())
		if p.Kind == PolicyKindOperationSwitch {
			return SkipChildren
		}
		return nil
	}))
	if err != nil {
		t.Fatalf("Walk() failed: %v", err)
	}
	if want := []string{"a", "sw", "e"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestWalk_StopsOnError(t *testing.T) {
	stop := errors.New("stop")
	count := 0
	err := Walk(testTree().Execute, VisitorFunc(func(p *Policy, depth int) error {
		count++
		if p.Title() == "b" {
			return stop
		}
		return nil
	}))
	if !errors.Is(err, stop) {
		t.Fatalf("Walk() error = %v, want stop", err)
	}
	if count != 3 {
		t.Errorf("visited %d policies, want 3", count)
	}
}

func TestAssembly_PolicyCountAndCatch(t *testing.T) {
	a := testTree()
	if got := a.PolicyCount(); got != 8 {
		t.Errorf("PolicyCount() = %d, want 8", got)
	}

	a.Catch = []*CatchClause{
		{Errors: []string{"ConnectionError"}},
		{Errors: []string{"TimeoutError", "ConnectionError"}},
		{Default: true},
	}
	if got := a.FindCatch("ConnectionError"); got != a.Catch[0] {
		t.Error("FindCatch should return the first matching clause")
	}
	if got := a.FindCatch("Whatever"); got != a.Catch[2] {
		t.Error("FindCatch should fall back to the default clause")
	}
	if (&CatchClause{Raw: Extensions{{Key: "weird"}}}).Matches("ConnectionError") {
		t.Error("raw clause must never match")
	}
}
