package parser

import (
	"errors"
	"fmt"
	"os"

	"switchboard-hq/switchboard/pkg/apic/ast"
	apicErrors "switchboard-hq/switchboard/pkg/apic/errors"
)

// Parser parses API-Connect style definition documents into typed definitions.
// It is tolerant of unknown policies and extension fields and strict about
// the fields the gateway depends on.
type Parser struct {
	maxFileSize int64 // Maximum document size in bytes (default: 10MB)
	maxDepth    int   // Maximum policy nesting depth (default: 64)
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: 10 * 1024 * 1024,
		maxDepth:    64,
	}
}

// WithMaxFileSize sets the maximum document size.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// WithMaxDepth sets the maximum policy nesting depth.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	p.maxDepth = depth
	return p
}

// Result is a parsed definition together with the non-fatal findings of the parse.
type Result struct {
	Definition *ast.Definition
	Warnings   []Warning
}

// Parse reads and parses the definition file at path.
func (p *Parser) Parse(path string) (*ast.Definition, error) {
	res, err := p.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return res.Definition, nil
}

// ParseFile reads and parses the definition file at path, returning warnings too.
func (p *Parser) ParseFile(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &apicErrors.Error{
			Type:     apicErrors.ErrorTypeIO,
			Message:  "failed to access file",
			Location: ast.Location{File: path},
			Cause:    err,
		}
	}
	if info.Size() > p.maxFileSize {
		return nil, &apicErrors.Error{
			Type:     apicErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("file size %d exceeds maximum %d bytes", info.Size(), p.maxFileSize),
			Location: ast.Location{File: path},
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &apicErrors.Error{
			Type:     apicErrors.ErrorTypeIO,
			Message:  "failed to read file",
			Location: ast.Location{File: path},
			Cause:    err,
		}
	}
	return p.ParseBytesWithWarnings(data, path)
}

// ParseBytes parses a definition from memory. sourcePath is only used for reporting.
func (p *Parser) ParseBytes(data []byte, sourcePath string) (*ast.Definition, error) {
	res, err := p.ParseBytesWithWarnings(data, sourcePath)
	if err != nil {
		return nil, err
	}
	return res.Definition, nil
}

// ParseBytesWithWarnings parses a definition from memory and returns its warnings.
func (p *Parser) ParseBytesWithWarnings(data []byte, sourcePath string) (*Result, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, &apicErrors.Error{
			Type:     apicErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("data size %d exceeds maximum %d bytes", len(data), p.maxFileSize),
			Location: ast.Location{File: sourcePath},
		}
	}

	root, err := parseYAMLBytes(data)
	if err != nil {
		return nil, apicErrors.AddContextToError(&apicErrors.Error{
			Type:       apicErrors.ErrorTypeSyntax,
			Message:    "YAML parsing failed",
			Location:   ast.Location{File: sourcePath, Line: syntaxErrorLine(err), Column: 1},
			Suggestion: "Check YAML syntax (indentation, colons, quotes)",
			Cause:      err,
		}, data)
	}

	b := newBuilder(sourcePath, p.maxDepth)
	def, err := b.buildDefinition(root)
	if err != nil {
		var errList *apicErrors.ErrorList
		if errors.As(err, &errList) {
			for i, e := range errList.Errors {
				errList.Errors[i] = apicErrors.AddContextToError(e, data)
			}
		}
		return nil, err
	}

	return &Result{Definition: def, Warnings: b.warnings}, nil
}
