// Package apic parses and validates API-Connect style gateway definitions.
//
// The subpackages hold the pieces: ast (typed model and policy tree), parser
// (tolerant YAML/JSON decoding), errors (rich parse errors) and validator
// (static checks). This package offers the common entry points.
package apic

import (
	"switchboard-hq/switchboard/pkg/apic/ast"
	"switchboard-hq/switchboard/pkg/apic/parser"
	"switchboard-hq/switchboard/pkg/apic/validator"
)

// Parse parses a definition file without validation.
func Parse(path string) (*ast.Definition, error) {
	return parser.NewParser().Parse(path)
}

// ParseBytes parses a definition from memory without validation.
func ParseBytes(data []byte, sourcePath string) (*ast.Definition, error) {
	return parser.NewParser().ParseBytes(data, sourcePath)
}

// ParseAndValidate parses a definition file and runs the static validation passes.
// Validation errors are returned as the error; warnings stay in the report.
func ParseAndValidate(path string) (*ast.Definition, *validator.Report, error) {
	def, err := Parse(path)
	if err != nil {
		return nil, nil, err
	}
	report := validator.NewValidator().Validate(def)
	if err := report.Err(); err != nil {
		return nil, report, err
	}
	return def, report, nil
}

// Validate runs the static validation passes on a parsed definition.
func Validate(def *ast.Definition) *validator.Report {
	return validator.NewValidator().Validate(def)
}
