package parser

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"switchboard-hq/switchboard/pkg/apic/ast"
	apicErrors "switchboard-hq/switchboard/pkg/apic/errors"
)

// Required top-level keys of a definition, in the order they are reported when missing.
var requiredTopLevelKeys = []string{
	"swagger", "info", "basePath", "consumes", "produces", "paths", "schemes", "x-ibm-configuration",
}

// Standard Swagger 2.0 keys that are kept as extensions without a warning.
var swaggerKeys = map[string]bool{
	"host": true, "definitions": true, "parameters": true, "responses": true,
	"securityDefinitions": true, "security": true, "tags": true, "externalDocs": true,
}

var httpVerbs = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true,
}

// Warning is a non-fatal finding, typically an unrecognized key kept as an extension.
type Warning struct {
	Path     string
	Message  string
	Location ast.Location
}

// String returns a human-readable representation of the warning.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (at %s)", w.Location, w.Message, w.Path)
}

// builder constructs the typed definition from the yaml node tree.
// It accumulates structural errors and keeps going so one parse reports them all.
type builder struct {
	sourcePath string
	maxDepth   int
	errors     *apicErrors.ErrorList
	warnings   []Warning
}

func newBuilder(sourcePath string, maxDepth int) *builder {
	return &builder{
		sourcePath: sourcePath,
		maxDepth:   maxDepth,
		errors:     apicErrors.NewErrorList(),
	}
}

func (b *builder) loc(node *yaml.Node) ast.Location {
	if node == nil {
		return ast.Location{File: b.sourcePath}
	}
	return ast.Location{File: b.sourcePath, Line: node.Line, Column: node.Column}
}

func (b *builder) fail(path string, node *yaml.Node, message, suggestion string) {
	b.errors.AddErrorWithSuggestion(apicErrors.ErrorTypeStructural, message, path, b.loc(node), suggestion)
}

func (b *builder) warn(path string, node *yaml.Node, message string) {
	b.warnings = append(b.warnings, Warning{Path: path, Message: message, Location: b.loc(node)})
}

func (b *builder) extension(p pair) ast.Extension {
	return ast.Extension{Key: p.Key, Value: p.Value, Location: b.loc(p.KeyNode)}
}

func (b *builder) missing(path string, node *yaml.Node, field, example string) {
	b.fail(joinPath(path, field), node, fmt.Sprintf("missing required field %q", field),
		apicErrors.SuggestMissingField(field, example))
}

// buildDefinition transforms the root mapping into an ast.Definition.
func (b *builder) buildDefinition(root *yaml.Node) (*ast.Definition, error) {
	def := &ast.Definition{
		SourceFile: b.sourcePath,
		Location:   b.loc(root),
		Paths:      make(map[string]map[string]*ast.Method),
	}

	fields := make(map[string]*yaml.Node)
	for _, p := range pairs(root) {
		switch p.Key {
		case "swagger", "info", "basePath", "consumes", "produces", "paths", "schemes", "x-ibm-configuration":
			fields[p.Key] = p.Value
		default:
			def.Extensions = append(def.Extensions, b.extension(p))
			if !strings.HasPrefix(p.Key, "x-") && !swaggerKeys[p.Key] {
				b.warn(p.Key, p.KeyNode, fmt.Sprintf("unrecognized top-level key %q kept as extension", p.Key))
			}
		}
	}

	for _, key := range requiredTopLevelKeys {
		if _, ok := fields[key]; !ok {
			b.missing("", root, key, "")
		}
	}

	if n, ok := fields["swagger"]; ok {
		def.Swagger, _ = b.scalar(n, "swagger")
	}
	if n, ok := fields["info"]; ok {
		def.Info = b.buildInfo(n, "info")
	}
	if n, ok := fields["basePath"]; ok {
		def.BasePath, _ = b.scalar(n, "basePath")
	}
	if n, ok := fields["consumes"]; ok {
		def.Consumes = b.stringList(n, "consumes")
	}
	if n, ok := fields["produces"]; ok {
		def.Produces = b.stringList(n, "produces")
	}
	if n, ok := fields["schemes"]; ok {
		def.Schemes = b.stringList(n, "schemes")
	}
	if n, ok := fields["paths"]; ok {
		b.buildPaths(def, n, "paths")
	}
	if n, ok := fields["x-ibm-configuration"]; ok {
		def.Switch = b.buildSwitch(n, "x-ibm-configuration")
	}

	if b.errors.HasErrors() {
		return nil, b.errors
	}
	return def, nil
}

func (b *builder) buildInfo(node *yaml.Node, path string) ast.Info {
	var yi yamlInfo
	if !b.decodeMapping(node, path, &yi) {
		return ast.Info{}
	}
	if yi.Version == nil {
		b.missing(path, node, "version", "1.0.0")
	}
	if yi.Title == nil {
		b.missing(path, node, "title", "")
	}
	if yi.Description == nil {
		b.missing(path, node, "description", "")
	}
	return ast.Info{
		Version:     deref(yi.Version),
		Title:       deref(yi.Title),
		Description: deref(yi.Description),
	}
}

func (b *builder) buildPaths(def *ast.Definition, node *yaml.Node, path string) {
	if resolve(node).Kind != yaml.MappingNode {
		b.fail(path, node, fmt.Sprintf("expected a mapping, got %s", kindName(node)), "")
		return
	}

	for _, pathItem := range pairs(node) {
		itemPath := joinPath(path, pathItem.Key)
		if strings.HasPrefix(pathItem.Key, "x-") {
			def.Extensions = append(def.Extensions, b.extension(pathItem))
			continue
		}
		if resolve(pathItem.Value).Kind != yaml.MappingNode {
			b.fail(itemPath, pathItem.Value, fmt.Sprintf("expected a mapping of verbs, got %s", kindName(pathItem.Value)), "")
			continue
		}

		methods := make(map[string]*ast.Method)
		for _, verb := range pairs(pathItem.Value) {
			if !httpVerbs[verb.Key] {
				if def.PathExtensions == nil {
					def.PathExtensions = make(map[string]ast.Extensions)
				}
				def.PathExtensions[pathItem.Key] = append(def.PathExtensions[pathItem.Key], b.extension(verb))
				continue
			}
			if m := b.buildMethod(verb.Value, joinPath(itemPath, verb.Key)); m != nil {
				methods[verb.Key] = m
			}
		}
		def.Paths[pathItem.Key] = methods
	}
}

func (b *builder) buildMethod(node *yaml.Node, path string) *ast.Method {
	if isNull(node) {
		return &ast.Method{Location: b.loc(node)}
	}
	if resolve(node).Kind != yaml.MappingNode {
		b.fail(path, node, fmt.Sprintf("expected a mapping, got %s", kindName(node)), "")
		return nil
	}

	m := &ast.Method{Location: b.loc(node)}
	for _, p := range pairs(node) {
		switch p.Key {
		case "parameters":
			m.Parameters = b.buildParameters(p.Value, joinPath(path, p.Key))
		case "summary":
			m.Summary, _ = b.scalar(p.Value, joinPath(path, p.Key))
		case "description":
			m.Description, _ = b.scalar(p.Value, joinPath(path, p.Key))
		case "responses":
			m.Responses = b.buildResponses(p.Value, joinPath(path, p.Key))
		default:
			m.Extensions = append(m.Extensions, b.extension(p))
		}
	}
	return m
}

func (b *builder) buildParameters(node *yaml.Node, path string) []ast.Parameter {
	if isNull(node) {
		return nil
	}
	items, ok := b.sequence(node, path)
	if !ok {
		return nil
	}

	params := make([]ast.Parameter, 0, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		var yp yamlParameter
		if !b.decodeMapping(item, itemPath, &yp) {
			continue
		}
		if yp.Ref != nil {
			params = append(params, ast.Parameter{Ref: *yp.Ref})
			continue
		}
		if yp.In == nil {
			b.missing(itemPath, item, "in", "query")
			continue
		}
		if yp.Name == nil {
			b.missing(itemPath, item, "name", "")
			continue
		}
		params = append(params, ast.Parameter{
			Location:    *yp.In,
			Name:        *yp.Name,
			Description: deref(yp.Description),
		})
	}
	return params
}

func (b *builder) buildResponses(node *yaml.Node, path string) map[int]*ast.Response {
	if isNull(node) {
		return nil
	}
	if resolve(node).Kind != yaml.MappingNode {
		b.fail(path, node, fmt.Sprintf("expected a mapping of status codes, got %s", kindName(node)), "")
		return nil
	}

	responses := make(map[int]*ast.Response)
	for _, p := range pairs(node) {
		respPath := joinPath(path, p.Key)
		code, ok := parseStatusCode(p.Key)
		if !ok {
			b.fail(respPath, p.KeyNode, fmt.Sprintf("invalid status code %q", p.Key), "Use a numeric status code or 'default'")
			continue
		}
		if r := b.buildResponse(p.Value, respPath); r != nil {
			responses[code] = r
		}
	}
	return responses
}

func parseStatusCode(key string) (int, bool) {
	if key == "default" {
		return ast.DefaultResponseCode, true
	}
	code, err := strconv.Atoi(key)
	if err != nil || code < 0 || code > 999 {
		return 0, false
	}
	return code, true
}

func (b *builder) buildResponse(node *yaml.Node, path string) *ast.Response {
	if resolve(node).Kind != yaml.MappingNode {
		b.fail(path, node, fmt.Sprintf("expected a mapping, got %s", kindName(node)), "")
		return nil
	}

	resp := &ast.Response{Location: b.loc(node)}
	hasDescription := false
	for _, p := range pairs(node) {
		switch {
		case p.Key == "description":
			resp.Description, _ = b.scalar(p.Value, joinPath(path, p.Key))
			hasDescription = true
		case isSchemaKey(p.Key):
			if schema, ok := b.buildResponseSchema(p, joinPath(path, p.Key)); ok {
				resp.Schemas = append(resp.Schemas, schema)
			}
		default:
			resp.Extensions = append(resp.Extensions, b.extension(p))
		}
	}
	if !hasDescription {
		b.missing(path, node, "description", "")
	}
	return resp
}

func isSchemaKey(key string) bool {
	return hasKey(ast.ContentSchemaKeys, key) || hasKey(ast.ErrorSchemaKeys, key)
}

func hasKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// buildResponseSchema resolves the Content/Error union. The extension key
// selects the variant: x-js-schema, x-js-content and x-js-type are content,
// x-js-error-content and x-error-message are error. A body without the
// selected variant's required fields is a structural error.
func (b *builder) buildResponseSchema(p pair, path string) (ast.ResponseSchema, bool) {
	schema := ast.ResponseSchema{Key: p.Key, Location: b.loc(p.KeyNode)}

	switch {
	case hasKey(ast.ContentSchemaKeys, p.Key):
		if cs, ok := tryContentSchema(p.Value); ok {
			schema.Kind = ast.SchemaKindContent
			schema.Content = cs
			return schema, true
		}
		b.fail(path, p.Value,
			fmt.Sprintf("%s does not match the content shape (path, property)", p.Key),
			apicErrors.SuggestMissingField("path' and 'property", ""))
	case hasKey(ast.ErrorSchemaKeys, p.Key):
		if es, ok := tryErrorSchema(p.Value); ok {
			schema.Kind = ast.SchemaKindError
			schema.Error = es
			return schema, true
		}
		b.fail(path, p.Value,
			fmt.Sprintf("%s does not match the error shape (code, message)", p.Key),
			apicErrors.SuggestMissingField("code' and 'message", ""))
	default:
		b.fail(path, p.Value, fmt.Sprintf("%q is not a response schema key", p.Key), "")
	}
	return schema, false
}

func tryContentSchema(node *yaml.Node) (*ast.ContentSchema, bool) {
	if resolve(node).Kind != yaml.MappingNode {
		return nil, false
	}
	var y yamlContentSchema
	if err := node.Decode(&y); err != nil {
		return nil, false
	}
	if y.Path == nil || y.Property == nil {
		return nil, false
	}
	return &ast.ContentSchema{
		Path:     *y.Path,
		Property: *y.Property,
		Message:  deref(y.Message),
		Code:     y.Code,
		Type:     deref(y.Type),
	}, true
}

func tryErrorSchema(node *yaml.Node) (*ast.ErrorSchema, bool) {
	if resolve(node).Kind != yaml.MappingNode {
		return nil, false
	}
	var y yamlErrorSchema
	if err := node.Decode(&y); err != nil {
		return nil, false
	}
	if !present(&y.Code) || y.Message == nil {
		return nil, false
	}
	code, ok := normalizeErrorCode(&y.Code)
	if !ok {
		return nil, false
	}

	es := &ast.ErrorSchema{Code: code, Message: *y.Message}
	for _, se := range y.SubErrors {
		if se.Code == nil || se.Message == nil {
			return nil, false
		}
		es.SubErrors = append(es.SubErrors, ast.SubError{Code: *se.Code, Message: *se.Message})
	}
	return es, true
}

// normalizeErrorCode maps an integer, float or string scalar to its canonical ErrorCode.
func normalizeErrorCode(node *yaml.Node) (ast.ErrorCode, bool) {
	node = resolve(node)
	if node.Kind != yaml.ScalarNode {
		return "", false
	}
	switch node.ShortTag() {
	case "!!int":
		if i, err := strconv.ParseInt(node.Value, 0, 64); err == nil {
			return ast.ErrorCodeFromInt(i), true
		}
		return ast.ErrorCodeFromString(node.Value), true
	case "!!float":
		if f, err := strconv.ParseFloat(node.Value, 64); err == nil {
			return ast.ErrorCodeFromFloat(f), true
		}
		return ast.ErrorCodeFromString(node.Value), true
	case "!!str":
		return ast.ErrorCodeFromString(node.Value), true
	default:
		return "", false
	}
}

func (b *builder) buildSwitch(node *yaml.Node, path string) *ast.Switch {
	if resolve(node).Kind != yaml.MappingNode {
		b.fail(path, node, fmt.Sprintf("expected a mapping, got %s", kindName(node)), "")
		return nil
	}

	sw := &ast.Switch{Location: b.loc(node)}
	for _, p := range pairs(node) {
		if p.Key == "assembly" {
			sw.Assembly = b.buildAssembly(p.Value, joinPath(path, p.Key))
			continue
		}
		sw.Extensions = append(sw.Extensions, b.extension(p))
	}
	if _, ok := lookup(node, "assembly"); !ok {
		b.missing(path, node, "assembly", "")
	}
	return sw
}

func (b *builder) buildAssembly(node *yaml.Node, path string) *ast.Assembly {
	if resolve(node).Kind != yaml.MappingNode {
		b.fail(path, node, fmt.Sprintf("expected a mapping, got %s", kindName(node)), "")
		return nil
	}

	a := &ast.Assembly{Location: b.loc(node)}
	hasExecute := false
	for _, p := range pairs(node) {
		switch p.Key {
		case "execute":
			hasExecute = true
			a.Execute = b.buildPolicyList(p.Value, joinPath(path, p.Key), 0)
		case "catch":
			a.Catch = b.buildCatch(p.Value, joinPath(path, p.Key))
		default:
			a.Extensions = append(a.Extensions, b.extension(p))
			b.warn(joinPath(path, p.Key), p.KeyNode, fmt.Sprintf("unrecognized assembly key %q kept as extension", p.Key))
		}
	}
	if !hasExecute {
		b.missing(path, node, "execute", "[]")
	}
	if a.Execute == nil {
		a.Execute = []*ast.Policy{}
	}
	if a.Catch == nil {
		a.Catch = []*ast.CatchClause{}
	}
	return a
}

// scalar returns the text of a scalar node, recording an error for other kinds.
func (b *builder) scalar(node *yaml.Node, path string) (string, bool) {
	n := resolve(node)
	if n.Kind != yaml.ScalarNode || isNull(n) {
		b.fail(path, node, fmt.Sprintf("expected a scalar, got %s", kindName(node)), "")
		return "", false
	}
	return n.Value, true
}

func (b *builder) sequence(node *yaml.Node, path string) ([]*yaml.Node, bool) {
	n := resolve(node)
	if n.Kind != yaml.SequenceNode {
		b.fail(path, node, fmt.Sprintf("expected a sequence, got %s", kindName(node)), "")
		return nil, false
	}
	return n.Content, true
}

func (b *builder) stringList(node *yaml.Node, path string) []string {
	items, ok := b.sequence(node, path)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		if s, ok := b.scalar(item, fmt.Sprintf("%s[%d]", path, i)); ok {
			out = append(out, s)
		}
	}
	return out
}

// decodeMapping decodes a mapping node into out, recording an error on failure.
func (b *builder) decodeMapping(node *yaml.Node, path string, out interface{}) bool {
	if resolve(node).Kind != yaml.MappingNode {
		b.fail(path, node, fmt.Sprintf("expected a mapping, got %s", kindName(node)), "")
		return false
	}
	if err := node.Decode(out); err != nil {
		b.errors.Add(&apicErrors.Error{
			Type:     apicErrors.ErrorTypeStructural,
			Message:  "invalid field value",
			Path:     path,
			Location: b.loc(node),
			Cause:    err,
		})
		return false
	}
	return true
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
