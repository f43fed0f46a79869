package ast

import "errors"

// SkipChildren may be returned by a visitor to skip the nested lists of the current policy.
var SkipChildren = errors.New("skip children")

// Visitor is called once per policy during traversal.
// depth is 0 for policies of the list passed to Walk.
type Visitor interface {
	VisitPolicy(p *Policy, depth int) error
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(p *Policy, depth int) error

// VisitPolicy calls f(p, depth).
func (f VisitorFunc) VisitPolicy(p *Policy, depth int) error {
	return f(p, depth)
}

// Walk traverses policies in pre-order, depth first. If bodies and case bodies
// are visited in declaration order. It returns the first error returned by the
// visitor other than SkipChildren.
func Walk(policies []*Policy, visitor Visitor) error {
	return walkList(policies, visitor, 0)
}

func walkList(policies []*Policy, visitor Visitor, depth int) error {
	for _, p := range policies {
		if err := walkPolicy(p, visitor, depth); err != nil {
			return err
		}
	}
	return nil
}

func walkPolicy(p *Policy, visitor Visitor, depth int) error {
	if err := visitor.VisitPolicy(p, depth); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, children := range p.Children() {
		if err := walkList(children, visitor, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// ForEachPolicy visits every policy of the assembly: the main sequence first,
// then the body of each catch clause in declaration order.
func ForEachPolicy(a *Assembly, fn func(p *Policy, depth int) error) error {
	if a == nil {
		return nil
	}
	visitor := VisitorFunc(fn)
	if err := Walk(a.Execute, visitor); err != nil {
		return err
	}
	for _, c := range a.Catch {
		if err := Walk(c.Execute, visitor); err != nil {
			return err
		}
	}
	return nil
}
