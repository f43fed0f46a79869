// Package ast provides the typed model of an API-Connect style gateway definition.
//
// A Definition is the parsed form of one document: a Swagger 2.0 body
// (info, basePath, paths, ...) extended with an x-ibm-configuration block whose
// assembly holds the policy tree executed for every inbound request.
//
// # Core Types
//
// Definition: Root node holding API metadata, paths and the root Switch
//
// Method / Response / ResponseSchema: Per-operation response documentation,
// including the x-js-* content and error shaping extensions
//
// ErrorCode: Error code normalized to a canonical string at parse time
//
// Assembly: Ordered policy list plus the catch clauses of the outermost assembly
//
// Policy: Tagged union of the known policy kinds and the Other fallback
//
// OperationSwitch / Case: Branch on the inbound (path, verb) operation
//
// # Tree Structure
//
//	Definition
//	├── Info, BasePath, Consumes, Produces, Schemes
//	├── Paths (path -> verb -> *Method)
//	│   └── Responses (status -> *Response)
//	│       └── Schemas ([]ResponseSchema: Content | Error)
//	└── Switch
//	    └── Assembly
//	        ├── Execute ([]*Policy)
//	        │   ├── If.Execute ([]*Policy)
//	        │   └── OperationSwitch.Cases[i].Execute ([]*Policy)
//	        └── Catch ([]*CatchClause)
//
// # Traversal
//
// Walk and ForEachPolicy visit policies in pre-order, depth first, with If
// children and case bodies visited in declaration order:
//
//	err := ast.ForEachPolicy(def.Switch.Assembly, func(p *ast.Policy, depth int) error {
//	    fmt.Printf("%*s%s\n", depth*2, "", p.Kind)
//	    return nil
//	})
//
// # Dispatch
//
// OperationSwitch.Resolve picks the first case declaring the inbound operation:
//
//	res, ok := sw.Resolve(ast.Operation{Path: "/orders", Verb: "get"})
//	if !ok {
//	    // caller decides, typically 404
//	}
//
// # Immutability
//
// Nodes are built once by the parser and must be treated as read-only afterwards.
// A loaded Definition is shared by every request without locking.
package ast
