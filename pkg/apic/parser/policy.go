package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"switchboard-hq/switchboard/pkg/apic/ast"
)

// buildPolicyList builds an execute list. Nested lists share the same rules at any depth.
func (b *builder) buildPolicyList(node *yaml.Node, path string, depth int) []*ast.Policy {
	if depth > b.maxDepth {
		b.fail(path, node, fmt.Sprintf("policy nesting exceeds maximum depth %d", b.maxDepth), "")
		return nil
	}
	items, ok := b.sequence(node, path)
	if !ok {
		return nil
	}

	policies := make([]*ast.Policy, 0, len(items))
	for i, item := range items {
		if p := b.buildPolicy(item, fmt.Sprintf("%s[%d]", path, i), depth); p != nil {
			policies = append(policies, p)
		}
	}
	return policies
}

// buildPolicy disambiguates one policy mapping. Known kinds are tried in the
// fixed order of ast.KnownPolicyKinds; the first whose key is present and whose
// body has the required shape wins. Anything else is preserved as Other.
func (b *builder) buildPolicy(node *yaml.Node, path string, depth int) *ast.Policy {
	if resolve(node).Kind != yaml.MappingNode {
		b.fail(path, node, fmt.Sprintf("policy must be a mapping, got %s", kindName(node)), "")
		return nil
	}
	entries := pairs(node)

	for _, kind := range ast.KnownPolicyKinds {
		body, ok := lookup(node, string(kind))
		if !ok {
			continue
		}
		policy := &ast.Policy{Kind: kind, Location: b.loc(node)}
		if err := b.decodePolicy(policy, body, joinPath(path, string(kind)), depth); err != nil {
			b.warn(path, node, fmt.Sprintf("%s body does not match its shape (%v)", kind, err))
			continue
		}
		for _, p := range entries {
			if p.Key != string(kind) {
				policy.Extensions = append(policy.Extensions, b.extension(p))
			}
		}
		return policy
	}

	other := &ast.Policy{Kind: ast.PolicyKindOther, Other: &ast.Other{}, Location: b.loc(node)}
	for _, p := range entries {
		other.Other.Fields = append(other.Other.Fields, b.extension(p))
	}
	b.warn(path, node, fmt.Sprintf("policy %q not recognized, preserved as-is", other.Other.Key()))
	return other
}

func (b *builder) decodePolicy(policy *ast.Policy, body *yaml.Node, path string, depth int) error {
	switch policy.Kind {
	case ast.PolicyKindSetEnvironment:
		var y yamlSetEnvironment
		if err := decodeStruct(body, &y); err != nil {
			return err
		}
		if y.Description == nil {
			return missingField("description")
		}
		policy.SetEnvironment = &ast.SetEnvironment{Description: *y.Description}

	case ast.PolicyKindBetterInvoke:
		var y yamlBetterInvoke
		if err := decodeStruct(body, &y); err != nil {
			return err
		}
		switch {
		case y.TargetURL == nil:
			return missingField("target-url")
		case y.Timeout == nil:
			return missingField("timeout")
		case y.Verb == nil:
			return missingField("verb")
		case *y.Timeout < 0 || *y.Timeout > 65535:
			return fmt.Errorf("timeout %d out of range", *y.Timeout)
		}
		policy.BetterInvoke = &ast.BetterInvoke{
			TargetURL: *y.TargetURL,
			Timeout:   *y.Timeout,
			Verb:      *y.Verb,
			InputBody: y.InputBody,
			Forever:   deref(y.Forever),
		}

	case ast.PolicyKindResponseHandler:
		var y yamlResponseHandler
		if err := decodeStruct(body, &y); err != nil {
			return err
		}
		setContext, err := orderedStrings(&y.SetContext)
		if err != nil {
			return fmt.Errorf("set-context: %w", err)
		}
		setHeaders, err := orderedStrings(&y.SetHeaders)
		if err != nil {
			return fmt.Errorf("set-headers: %w", err)
		}
		if y.SuccessCode != nil && (*y.SuccessCode < 0 || *y.SuccessCode > 65535) {
			return fmt.Errorf("success-code %d out of range", *y.SuccessCode)
		}
		policy.ResponseHandler = &ast.ResponseHandler{
			StjsDataHolder: deref(y.StjsDataHolder),
			ClearBody:      deref(y.ClearBody),
			SetContext:     setContext,
			SetHeaders:     setHeaders,
			SuccessCode:    y.SuccessCode,
			HardFail:       deref(y.HardFail),
			Frontend:       deref(y.Frontend),
		}

	case ast.PolicyKindOperationSwitch:
		sw, err := b.decodeOperationSwitch(body, path, depth)
		if err != nil {
			return err
		}
		policy.OperationSwitch = sw

	case ast.PolicyKindErrorMessageHandling:
		var y yamlErrorMessageHandling
		if err := decodeStruct(body, &y); err != nil {
			return err
		}
		if y.Description == nil {
			return missingField("description")
		}
		policy.ErrorMessageHandling = &ast.ErrorMessageHandling{Description: *y.Description}

	case ast.PolicyKindJavascript:
		var y yamlJavascript
		if err := decodeStruct(body, &y); err != nil {
			return err
		}
		if y.Title == nil {
			return missingField("title")
		}
		if y.Source == nil {
			return missingField("source")
		}
		policy.Javascript = &ast.Javascript{Title: *y.Title, Source: *y.Source}

	case ast.PolicyKindIf:
		var y yamlIf
		if err := decodeStruct(body, &y); err != nil {
			return err
		}
		if y.Condition == nil {
			return missingField("condition")
		}
		if !present(&y.Execute) || resolve(&y.Execute).Kind != yaml.SequenceNode {
			return missingField("execute")
		}
		policy.If = &ast.If{
			Condition: *y.Condition,
			Execute:   b.buildPolicyList(&y.Execute, joinPath(path, "execute"), depth+1),
		}

	default:
		return fmt.Errorf("unsupported policy kind %q", policy.Kind)
	}
	return nil
}

// decodeOperationSwitch checks the shape of every case before building any
// nested list, so a mismatching switch leaves no partial findings behind.
func (b *builder) decodeOperationSwitch(body *yaml.Node, path string, depth int) (*ast.OperationSwitch, error) {
	var y yamlOperationSwitch
	if err := decodeStruct(body, &y); err != nil {
		return nil, err
	}
	if y.Title == nil {
		return nil, missingField("title")
	}
	if !present(&y.Cases) || resolve(&y.Cases).Kind != yaml.SequenceNode {
		return nil, missingField("case")
	}

	caseNodes := resolve(&y.Cases).Content
	cases := make([]yamlCase, len(caseNodes))
	for i, cn := range caseNodes {
		if err := decodeStruct(cn, &cases[i]); err != nil {
			return nil, fmt.Errorf("case[%d]: %w", i, err)
		}
		if cases[i].Operations == nil {
			return nil, fmt.Errorf("case[%d]: %w", i, missingField("operations"))
		}
		for j, op := range cases[i].Operations {
			if op.Path == nil || op.Verb == nil {
				return nil, fmt.Errorf("case[%d].operations[%d]: path and verb are required", i, j)
			}
		}
		if !present(&cases[i].Execute) || resolve(&cases[i].Execute).Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("case[%d]: %w", i, missingField("execute"))
		}
	}

	sw := &ast.OperationSwitch{Title: *y.Title, Cases: make([]*ast.Case, 0, len(cases))}
	for i, yc := range cases {
		c := &ast.Case{
			Operations: make([]ast.Operation, 0, len(yc.Operations)),
			Location:   b.loc(caseNodes[i]),
		}
		for _, op := range yc.Operations {
			c.Operations = append(c.Operations, ast.Operation{Path: *op.Path, Verb: *op.Verb})
		}
		c.Execute = b.buildPolicyList(&yc.Execute, fmt.Sprintf("%s.case[%d].execute", path, i), depth+1)
		sw.Cases = append(sw.Cases, c)
	}
	return sw, nil
}

// buildCatch builds the catch clauses of the outermost assembly.
// Clauses of an unknown shape are preserved raw and never match.
func (b *builder) buildCatch(node *yaml.Node, path string) []*ast.CatchClause {
	if isNull(node) {
		return nil
	}
	items, ok := b.sequence(node, path)
	if !ok {
		return nil
	}

	clauses := make([]*ast.CatchClause, 0, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		clause := &ast.CatchClause{Location: b.loc(item)}

		typed := false
		if resolve(item).Kind == yaml.MappingNode {
			errs, hasErrors := lookup(item, "errors")
			exec, hasExecute := lookup(item, "execute")
			def, hasDefault := lookup(item, "default")
			switch {
			case hasErrors && hasExecute && resolve(exec).Kind == yaml.SequenceNode:
				if names, ok := scalarList(errs); ok {
					clause.Errors = names
					clause.Execute = b.buildPolicyList(exec, joinPath(itemPath, "execute"), 0)
					typed = true
				}
			case hasDefault && resolve(def).Kind == yaml.SequenceNode:
				clause.Default = true
				clause.Execute = b.buildPolicyList(def, joinPath(itemPath, "default"), 0)
				typed = true
			}
		}

		if !typed {
			if resolve(item).Kind == yaml.MappingNode {
				for _, p := range pairs(item) {
					clause.Raw = append(clause.Raw, b.extension(p))
				}
			} else {
				clause.Raw = ast.Extensions{{Value: item, Location: b.loc(item)}}
			}
			b.warn(itemPath, item, "catch clause shape not recognized, preserved as-is")
		}
		clauses = append(clauses, clause)
	}
	return clauses
}

func decodeStruct(node *yaml.Node, out interface{}) error {
	if resolve(node).Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping, got %s", kindName(node))
	}
	return node.Decode(out)
}

func missingField(name string) error {
	return fmt.Errorf("missing required field %q", name)
}

// orderedStrings reads a mapping of scalars preserving document order.
func orderedStrings(node *yaml.Node) ([]ast.KeyValue, error) {
	if !present(node) {
		return nil, nil
	}
	if resolve(node).Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping, got %s", kindName(node))
	}
	var out []ast.KeyValue
	for _, p := range pairs(node) {
		v := resolve(p.Value)
		if v.Kind != yaml.ScalarNode || isNull(v) {
			return nil, fmt.Errorf("value of %q must be a scalar", p.Key)
		}
		out = append(out, ast.KeyValue{Key: p.Key, Value: v.Value})
	}
	return out, nil
}

func scalarList(node *yaml.Node) ([]string, bool) {
	n := resolve(node)
	if n.Kind == yaml.ScalarNode && !isNull(n) {
		return []string{n.Value}, true
	}
	if n.Kind != yaml.SequenceNode {
		return nil, false
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		s := resolve(item)
		if s.Kind != yaml.ScalarNode {
			return nil, false
		}
		out = append(out, s.Value)
	}
	return out, true
}
