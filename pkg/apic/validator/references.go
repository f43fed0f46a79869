package validator

import (
	"fmt"

	"switchboard-hq/switchboard/pkg/apic/ast"
	apicErrors "switchboard-hq/switchboard/pkg/apic/errors"
)

// ReferenceValidator cross-checks operation switches against the declared paths.
type ReferenceValidator struct {
	report *Report
}

// NewReferenceValidator creates a new reference validator.
func NewReferenceValidator() *ReferenceValidator {
	return &ReferenceValidator{report: newReport()}
}

// Validate reports case operations that are not declared in paths, operations
// shadowed by an earlier case of the same switch, and declared operations the
// root switch never handles.
func (v *ReferenceValidator) Validate(def *ast.Definition) *Report {
	v.report = newReport()
	a := def.Assembly()
	if a == nil {
		return v.report
	}

	_ = ast.ForEachPolicy(a, func(p *ast.Policy, depth int) error {
		if p.Kind == ast.PolicyKindOperationSwitch {
			v.validateSwitch(def, p)
		}
		return nil
	})

	if root := a.RootSwitch(); root != nil {
		for _, op := range def.Operations() {
			if _, ok := root.Resolve(op); !ok {
				v.report.Warnings.AddError(apicErrors.ErrorTypeValidation,
					fmt.Sprintf("operation %s is declared but no case of the root switch handles it", op),
					"paths", def.Location)
			}
		}
	}

	return v.report
}

func (v *ReferenceValidator) validateSwitch(def *ast.Definition, p *ast.Policy) {
	seen := make(map[ast.Operation]int)
	for i, c := range p.OperationSwitch.Cases {
		path := fmt.Sprintf("operation-switch.case[%d]", i)
		for _, op := range c.Operations {
			if !def.HasOperation(op) {
				v.report.Warnings.AddError(apicErrors.ErrorTypeValidation,
					fmt.Sprintf("case operation %s is not declared in paths", op), path, c.Location)
			}
			if first, dup := seen[op]; dup && first != i {
				v.report.Warnings.AddError(apicErrors.ErrorTypeValidation,
					fmt.Sprintf("case operation %s is shadowed by case[%d] and can never match here", op, first),
					path, c.Location)
				continue
			}
			seen[op] = i
		}
	}
}
