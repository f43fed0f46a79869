package ast

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Extension is one unrecognized key preserved verbatim from the source document.
type Extension struct {
	Key      string
	Value    *yaml.Node // Raw value, never interpreted by the parser
	Location Location
}

// Extensions is an ordered bag of unrecognized fields.
// Order follows the source document so tooling can round-trip it.
type Extensions []Extension

// Keys returns the extension keys in document order.
func (e Extensions) Keys() []string {
	keys := make([]string, len(e))
	for i, ext := range e {
		keys[i] = ext.Key
	}
	return keys
}

// Get returns the raw node stored under key.
func (e Extensions) Get(key string) (*yaml.Node, bool) {
	for _, ext := range e {
		if ext.Key == key {
			return ext.Value, true
		}
	}
	return nil, false
}

// Has returns true if key is present.
func (e Extensions) Has(key string) bool {
	_, ok := e.Get(key)
	return ok
}

// Decode decodes the value stored under key into out.
func (e Extensions) Decode(key string, out interface{}) error {
	node, ok := e.Get(key)
	if !ok {
		return fmt.Errorf("extension %q not present", key)
	}
	return node.Decode(out)
}

// Value returns the value under key decoded into generic Go types
// (map[string]interface{}, []interface{}, string, int, float64, bool, nil).
func (e Extensions) Value(key string) (interface{}, bool) {
	node, ok := e.Get(key)
	if !ok {
		return nil, false
	}
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// Map returns all extensions decoded into generic Go values.
func (e Extensions) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(e))
	for _, ext := range e {
		var v interface{}
		if err := ext.Value.Decode(&v); err == nil {
			out[ext.Key] = v
		}
	}
	return out
}
