package validator

import (
	"switchboard-hq/switchboard/pkg/apic/ast"
	apicErrors "switchboard-hq/switchboard/pkg/apic/errors"
)

// Report holds the findings of a validation run.
// Errors make a definition unfit to serve; warnings do not.
type Report struct {
	Errors   *apicErrors.ErrorList
	Warnings *apicErrors.ErrorList
}

func newReport() *Report {
	return &Report{
		Errors:   apicErrors.NewErrorList(),
		Warnings: apicErrors.NewErrorList(),
	}
}

// Err returns the errors as a single error, or nil.
func (r *Report) Err() error {
	return r.Errors.ToError()
}

// HasWarnings returns true if any warning was reported.
func (r *Report) HasWarnings() bool {
	return r.Warnings.HasErrors()
}

func (r *Report) merge(other *Report) {
	r.Errors.Errors = append(r.Errors.Errors, other.Errors.Errors...)
	r.Warnings.Errors = append(r.Warnings.Errors, other.Warnings.Errors...)
}

// Validator orchestrates the static validation passes over a parsed definition.
// It never runs on the request path.
type Validator struct {
	policies   *PolicyValidator
	references *ReferenceValidator
}

// NewValidator creates a new validator with all passes.
func NewValidator() *Validator {
	return &Validator{
		policies:   NewPolicyValidator(),
		references: NewReferenceValidator(),
	}
}

// Validate runs all passes and accumulates their findings.
func (v *Validator) Validate(def *ast.Definition) *Report {
	report := newReport()
	report.merge(v.policies.Validate(def))
	report.merge(v.references.Validate(def))
	return report
}

// ValidatePolicies runs only the policy pass.
func (v *Validator) ValidatePolicies(def *ast.Definition) *Report {
	return v.policies.Validate(def)
}

// ValidateReferences runs only the operation reference pass.
func (v *Validator) ValidateReferences(def *ast.Definition) *Report {
	return v.references.Validate(def)
}
