package ast

import (
	"sort"
	"strings"
)

// Definition represents one parsed API-Connect style document.
// It is built once at load time and never mutated afterwards.
type Definition struct {
	Swagger  string   // Swagger version (e.g., "2.0")
	Info     Info     // API metadata
	BasePath string   // Base path all paths are relative to
	Consumes []string // Accepted content types
	Produces []string // Produced content types
	Schemes  []string // Transport schemes (http, https)

	// Paths maps a path template to its methods keyed by lowercase verb.
	Paths map[string]map[string]*Method

	// PathExtensions holds non-verb keys of a path item (parameters, x-*), by path.
	PathExtensions map[string]Extensions

	// Switch is the x-ibm-configuration block. Exactly one per definition.
	Switch *Switch

	// Extensions holds unrecognized top-level keys.
	Extensions Extensions

	SourceFile string
	Location   Location
}

// Info holds API metadata.
type Info struct {
	Version     string
	Title       string
	Description string
}

// Switch is the root gateway configuration holding the single assembly.
type Switch struct {
	Assembly *Assembly

	// Extensions holds the other x-ibm-configuration keys (cors, gateway, ...).
	Extensions Extensions
	Location   Location
}

// Parameter describes a single operation parameter.
type Parameter struct {
	Location    string // "in": path, query, header, body, formData
	Name        string
	Description string // Optional
	Ref         string // Set instead of Location/Name for "$ref" parameters
}

// Method documents one (path, verb) operation.
type Method struct {
	Parameters  []Parameter
	Summary     string
	Description string

	// Responses maps a numeric status code to its documentation.
	// The "default" response is stored under code 0.
	Responses map[int]*Response

	Extensions Extensions
	Location   Location
}

// DefaultResponseCode is the key under which a "default" response is stored.
const DefaultResponseCode = 0

// ID returns a stable identifier for the definition ("title@version").
func (d *Definition) ID() string {
	return d.Info.Title + "@" + d.Info.Version
}

// Assembly returns the root assembly, or nil if the definition has no switch.
func (d *Definition) Assembly() *Assembly {
	if d.Switch == nil {
		return nil
	}
	return d.Switch.Assembly
}

// Method returns the method declared for the given path and verb, or nil.
// The verb is matched case-insensitively since documents declare verbs in lowercase.
func (d *Definition) Method(path, verb string) *Method {
	methods, ok := d.Paths[path]
	if !ok {
		return nil
	}
	if m, ok := methods[verb]; ok {
		return m
	}
	return methods[strings.ToLower(verb)]
}

// HasOperation returns true if the definition declares the given operation.
func (d *Definition) HasOperation(op Operation) bool {
	return d.Method(op.Path, op.Verb) != nil
}

// Operations returns every declared operation sorted by path, then verb.
func (d *Definition) Operations() []Operation {
	ops := make([]Operation, 0, len(d.Paths))
	for path, methods := range d.Paths {
		for verb := range methods {
			ops = append(ops, Operation{Path: path, Verb: verb})
		}
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return ops[i].Verb < ops[j].Verb
	})
	return ops
}

// Response returns the response documented for code, falling back to the default response.
func (m *Method) Response(code int) *Response {
	if m == nil {
		return nil
	}
	if r, ok := m.Responses[code]; ok {
		return r
	}
	return m.Responses[DefaultResponseCode]
}
