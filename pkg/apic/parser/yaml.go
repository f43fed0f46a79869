package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Intermediate structures decoded straight from yaml nodes. Pointer fields
// distinguish an absent key from a zero value so required fields can be checked.

type yamlInfo struct {
	Version     *string `yaml:"version"`
	Title       *string `yaml:"title"`
	Description *string `yaml:"description"`
}

type yamlParameter struct {
	In          *string `yaml:"in"`
	Name        *string `yaml:"name"`
	Description *string `yaml:"description"`
	Ref         *string `yaml:"$ref"`
}

type yamlContentSchema struct {
	Path     *string `yaml:"path"`
	Property *string `yaml:"property"`
	Message  *string `yaml:"message"`
	Code     *int    `yaml:"code"`
	Type     *string `yaml:"type"`
}

type yamlErrorSchema struct {
	Code      yaml.Node      `yaml:"code"`
	Message   *string        `yaml:"message"`
	SubErrors []yamlSubError `yaml:"suberrors"`
}

type yamlSubError struct {
	Code    *int    `yaml:"code"`
	Message *string `yaml:"message"`
}

type yamlSetEnvironment struct {
	Description *string `yaml:"description"`
}

type yamlBetterInvoke struct {
	TargetURL *string `yaml:"target-url"`
	Timeout   *int    `yaml:"timeout"`
	Verb      *string `yaml:"verb"`
	InputBody *string `yaml:"input-body"`
	Forever   *bool   `yaml:"forever"`
}

type yamlResponseHandler struct {
	ClearBody      *bool     `yaml:"clear-body"`
	StjsDataHolder *string   `yaml:"stjs-data-holder"`
	SuccessCode    *int      `yaml:"success-code"`
	HardFail       *bool     `yaml:"hard-fail"`
	SetContext     yaml.Node `yaml:"set-context"`
	SetHeaders     yaml.Node `yaml:"set-headers"`
	Frontend       *bool     `yaml:"frontend"`
}

type yamlOperationSwitch struct {
	Title *string   `yaml:"title"`
	Cases yaml.Node `yaml:"case"`
}

type yamlCase struct {
	Operations []yamlOperation `yaml:"operations"`
	Execute    yaml.Node       `yaml:"execute"`
}

type yamlOperation struct {
	Path *string `yaml:"path"`
	Verb *string `yaml:"verb"`
}

type yamlErrorMessageHandling struct {
	Description *string `yaml:"description"`
}

type yamlJavascript struct {
	Title  *string `yaml:"title"`
	Source *string `yaml:"source"`
}

type yamlIf struct {
	Condition *string   `yaml:"condition"`
	Execute   yaml.Node `yaml:"execute"`
}

// pair is one key/value entry of a mapping node.
type pair struct {
	Key     string
	KeyNode *yaml.Node
	Value   *yaml.Node
}

// parseYAMLBytes parses YAML (or JSON) bytes into the root mapping node.
func parseYAMLBytes(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, &rootShapeError{kind: kindName(root), line: root.Line}
	}
	return root, nil
}

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

// syntaxErrorLine extracts the line yaml.v3 reports for a decode failure,
// or 1 when the error carries none.
func syntaxErrorLine(err error) int {
	var rootErr *rootShapeError
	if errors.As(err, &rootErr) {
		return rootErr.line
	}
	msg := err.Error()
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		msg = typeErr.Errors[0]
	}
	if m := yamlLinePattern.FindStringSubmatch(msg); m != nil {
		if line, convErr := strconv.Atoi(m[1]); convErr == nil && line > 0 {
			return line
		}
	}
	return 1
}

// rootShapeError reports a document whose root is not a mapping.
type rootShapeError struct {
	kind string
	line int
}

func (e *rootShapeError) Error() string {
	return fmt.Sprintf("document root must be a mapping, got %s", e.kind)
}

// resolve follows alias nodes to their anchors.
func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// pairs returns the entries of a mapping node in document order.
func pairs(node *yaml.Node) []pair {
	node = resolve(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]pair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k := resolve(node.Content[i])
		out = append(out, pair{Key: k.Value, KeyNode: k, Value: node.Content[i+1]})
	}
	return out
}

// lookup returns the value stored under key in a mapping node.
func lookup(node *yaml.Node, key string) (*yaml.Node, bool) {
	for _, p := range pairs(node) {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// present returns true if a yaml.Node field was populated by the decoder.
func present(node *yaml.Node) bool {
	return node != nil && node.Kind != 0 && !isNull(node)
}

func isNull(node *yaml.Node) bool {
	node = resolve(node)
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func kindName(node *yaml.Node) string {
	switch resolve(node).Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "unknown"
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
