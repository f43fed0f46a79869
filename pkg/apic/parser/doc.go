// Package parser builds typed definitions from API-Connect style YAML or JSON documents.
//
// Documents are decoded with gopkg.in/yaml.v3 into a node tree first; the
// builder then walks the nodes so every finding carries a document path and
// a line/column.
//
// # Tolerance
//
// Unrecognized top-level keys, method fields, response fields and
// x-ibm-configuration keys are kept as extensions. A policy whose kind is not
// recognized, or whose known key has a body missing required fields, becomes an
// ast.Other holding every key of the mapping in order. These cases are
// reported as warnings, never as errors.
//
// # Disambiguation
//
// Policy kinds are tried in the fixed order of ast.KnownPolicyKinds. Response
// schemas are bound to their key: x-js-schema, x-js-content and x-js-type hold
// content (path, property), x-js-error-content and x-error-message hold an
// error (code, message). A body missing its variant's fields fails the parse.
// Error codes given as integers, floats or strings are normalized to one
// canonical ast.ErrorCode.
//
// # Usage
//
//	p := parser.NewParser()
//	def, err := p.Parse("definitions/orders.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := p.ParseBytesWithWarnings(data, "inline.yaml")
//	for _, w := range res.Warnings {
//	    log.Println(w)
//	}
package parser
