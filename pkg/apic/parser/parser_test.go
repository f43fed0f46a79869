package parser

import (
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"switchboard-hq/switchboard/pkg/apic/ast"
	apicErrors "switchboard-hq/switchboard/pkg/apic/errors"
)

func TestParser_Parse_Orders(t *testing.T) {
	parser := NewParser()
	res, err := parser.ParseFile("testdata/valid/orders.yaml")
	if err != nil {
		t.Fatalf("ParseFile() failed: %v", err)
	}
	def := res.Definition

	if def.Swagger != "2.0" {
		t.Errorf("Swagger = %q, want %q", def.Swagger, "2.0")
	}
	if def.Info.Title != "Orders" || def.Info.Version != "1.0.0" {
		t.Errorf("Info = %+v", def.Info)
	}
	if def.BasePath != "/api" {
		t.Errorf("BasePath = %q, want /api", def.BasePath)
	}
	if len(def.Schemes) != 1 || def.Schemes[0] != "https" {
		t.Errorf("Schemes = %v", def.Schemes)
	}

	get := def.Method("/orders", "get")
	if get == nil {
		t.Fatal("missing GET /orders")
	}
	if len(get.Parameters) != 2 {
		t.Fatalf("len(Parameters) = %d, want 2", len(get.Parameters))
	}
	if get.Parameters[0].Location != "query" || get.Parameters[0].Name != "status" {
		t.Errorf("Parameters[0] = %+v", get.Parameters[0])
	}
	if get.Parameters[1].Ref != "#/parameters/Paging" {
		t.Errorf("Parameters[1].Ref = %q", get.Parameters[1].Ref)
	}
	if len(get.Responses) != 4 {
		t.Errorf("len(Responses) = %d, want 4", len(get.Responses))
	}
	if get.Response(ast.DefaultResponseCode).Description != "Unexpected" {
		t.Error("default response not stored under code 0")
	}

	if exts := def.PathExtensions["/orders/{id}"]; !exts.Has("parameters") {
		t.Error("path-level parameters should be kept as a path extension")
	}
	if !def.Switch.Extensions.Has("cors") || !def.Switch.Extensions.Has("enforced") {
		t.Errorf("switch extensions = %v", def.Switch.Extensions.Keys())
	}
	if len(res.Warnings) == 0 {
		t.Error("expected warnings for the unknown policy and catch clause")
	}
}

func TestParser_ResponseSchemas(t *testing.T) {
	def, err := NewParser().Parse("testdata/valid/orders.yaml")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	get := def.Method("/orders", "get")

	ok := get.Responses[200]
	if len(ok.Schemas) != 1 || ok.Schemas[0].Kind != ast.SchemaKindContent {
		t.Fatalf("200 schemas = %+v", ok.Schemas)
	}
	cs := ok.ContentSchema()
	if cs.Path != "$.data" || cs.Property != "orders" || cs.Type != "array" {
		t.Errorf("content schema = %+v", cs)
	}

	notFound := get.Responses[404].ErrorSchema()
	if notFound == nil {
		t.Fatal("404 should carry an error schema")
	}
	if notFound.Code != "404" {
		t.Errorf("404 code = %q", notFound.Code)
	}
	if len(notFound.SubErrors) != 1 || notFound.SubErrors[0].Code != 1001 {
		t.Errorf("suberrors = %+v", notFound.SubErrors)
	}

	serverErr := get.Responses[500]
	if serverErr.Schemas[0].Key != "x-error-message" {
		t.Errorf("schema key = %q", serverErr.Schemas[0].Key)
	}
	if got := serverErr.ErrorSchema().Code; got != "500" {
		t.Errorf("500 code = %q, want normalized %q", got, "500")
	}
}

func TestParser_ErrorCodeRepresentations(t *testing.T) {
	for _, code := range []string{`200`, `200.0`, `"200"`, `'200.00'`} {
		t.Run(code, func(t *testing.T) {
			doc := strings.ReplaceAll(schemaDoc, "CODE", code)
			def, err := NewParser().ParseBytes([]byte(doc), "code.yaml")
			if err != nil {
				t.Fatalf("ParseBytes() failed: %v", err)
			}
			got := def.Method("/x", "get").Responses[200].ErrorSchema().Code
			if got != "200" {
				t.Errorf("code = %q, want %q", got, "200")
			}
		})
	}
}

const schemaDoc = `
swagger: "2.0"
info: {version: "1", title: t, description: d}
basePath: /
consumes: []
produces: []
schemes: [http]
paths:
  /x:
    get:
      responses:
        200:
          description: ok
          x-js-error-content:
            code: CODE
            message: m
x-ibm-configuration:
  assembly:
    execute: []
`

func TestParser_SchemaKeySelectsVariant(t *testing.T) {
	contentBody := "path: $.p\n            property: q"
	errorBody := "code: 500\n            message: m"
	bothBody := "code: 7\n            message: m\n            path: $.p\n            property: q"

	tests := []struct {
		name     string
		key      string
		body     string
		wantKind ast.SchemaKind
		wantErr  bool
	}{
		{"error key with both shapes", "x-js-error-content", bothBody, ast.SchemaKindError, false},
		{"content key with both shapes", "x-js-schema", bothBody, ast.SchemaKindContent, false},
		{"error alias with error body", "x-error-message", errorBody, ast.SchemaKindError, false},
		{"content alias with content body", "x-js-type", contentBody, ast.SchemaKindContent, false},
		{"content key with error body", "x-js-schema", errorBody, "", true},
		{"content alias with error body", "x-js-content", errorBody, "", true},
		{"error key with content body", "x-js-error-content", contentBody, "", true},
		{"error alias with content body", "x-error-message", contentBody, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.ReplaceAll(schemaDoc, "x-js-error-content:", tt.key+":")
			doc = strings.ReplaceAll(doc, "code: CODE\n            message: m", tt.body)

			def, err := NewParser().ParseBytes([]byte(doc), "schema.yaml")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected a structural error for %s, got %+v",
						tt.key, def.Method("/x", "get").Responses[200].Schemas)
				}
				var list *apicErrors.ErrorList
				if !errors.As(err, &list) || list.Errors[0].Type != apicErrors.ErrorTypeStructural {
					t.Fatalf("expected a structural error list, got %v", err)
				}
				if want := "paths./x.get.responses.200." + tt.key; list.Errors[0].Path != want {
					t.Errorf("error path = %q, want %q", list.Errors[0].Path, want)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBytes() failed: %v", err)
			}
			resp := def.Method("/x", "get").Responses[200]
			if len(resp.Schemas) != 1 || resp.Schemas[0].Kind != tt.wantKind {
				t.Fatalf("schemas = %+v, want one %s schema", resp.Schemas, tt.wantKind)
			}
			switch tt.wantKind {
			case ast.SchemaKindError:
				if resp.ErrorSchema() == nil || resp.ContentSchema() != nil {
					t.Errorf("expected only an error schema, got %+v", resp.Schemas[0])
				}
			case ast.SchemaKindContent:
				if resp.ContentSchema() == nil || resp.ErrorSchema() != nil {
					t.Errorf("expected only a content schema, got %+v", resp.Schemas[0])
				}
			}
		})
	}
}

func TestParser_PolicyTree(t *testing.T) {
	def, err := NewParser().Parse("testdata/valid/orders.yaml")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	a := def.Assembly()
	if a == nil {
		t.Fatal("missing assembly")
	}

	wantKinds := []ast.PolicyKind{
		ast.PolicyKindSetEnvironment,
		ast.PolicyKindOperationSwitch,
		ast.PolicyKindOther,
		ast.PolicyKindErrorMessageHandling,
	}
	if len(a.Execute) != len(wantKinds) {
		t.Fatalf("len(Execute) = %d, want %d", len(a.Execute), len(wantKinds))
	}
	for i, want := range wantKinds {
		if a.Execute[i].Kind != want {
			t.Errorf("Execute[%d].Kind = %q, want %q", i, a.Execute[i].Kind, want)
		}
	}

	sw := a.Execute[1].OperationSwitch
	if sw.Title != "route" || len(sw.Cases) != 2 {
		t.Fatalf("switch = %+v", sw)
	}

	rh := sw.Cases[0].Execute[1].ResponseHandler
	if rh.StjsDataHolder != "raw" || rh.SuccessCode == nil || *rh.SuccessCode != 200 {
		t.Errorf("response handler = %+v", rh)
	}
	if len(rh.SetContext) != 2 || rh.SetContext[0].Key != "source" || rh.SetContext[1].Value != "2" {
		t.Errorf("set-context = %+v", rh.SetContext)
	}
	if len(rh.SetHeaders) != 1 || rh.SetHeaders[0] != (ast.KeyValue{Key: "X-Source", Value: "backend"}) {
		t.Errorf("set-headers = %+v", rh.SetHeaders)
	}

	ifPolicy := sw.Cases[1].Execute[0]
	if ifPolicy.Kind != ast.PolicyKindIf || len(ifPolicy.If.Execute) != 2 {
		t.Fatalf("case[1] = %+v", ifPolicy)
	}
	inv := ifPolicy.If.Execute[1].BetterInvoke
	if inv.Verb != "keep" || !inv.Forever || inv.InputBody == nil || *inv.InputBody != "$(request.body)" {
		t.Errorf("nested invoke = %+v", inv)
	}

	if got := a.PolicyCount(); got != 11 {
		t.Errorf("PolicyCount() = %d, want 11", got)
	}
}

func TestParser_UnknownPolicyPreserved(t *testing.T) {
	def, err := NewParser().Parse("testdata/valid/orders.yaml")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	other := def.Assembly().Execute[2]
	if other.Kind != ast.PolicyKindOther {
		t.Fatalf("Kind = %q, want other", other.Kind)
	}
	if other.Other.Key() != "gatewayscript" {
		t.Errorf("Key() = %q", other.Other.Key())
	}

	var body struct {
		Version string `yaml:"version"`
		Title   string `yaml:"title"`
		Source  string `yaml:"source"`
	}
	if err := other.Other.Fields.Decode("gatewayscript", &body); err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if body.Title != "legacy" || body.Version != "2.0.0" || body.Source != "console.log('hi')" {
		t.Errorf("round-tripped body = %+v", body)
	}
}

func TestParser_KnownKeyWithWrongShapeFallsBackToOther(t *testing.T) {
	doc := strings.Replace(schemaDoc, "execute: []", `execute:
      - better-invoke:
          target-url: http://x
      - if:
          condition: "true"
          execute: []
        note: kept`, 1)
	res, err := NewParser().ParseBytesWithWarnings([]byte(doc), "shape.yaml")
	if err != nil {
		t.Fatalf("ParseBytes() failed: %v", err)
	}
	exec := res.Definition.Assembly().Execute
	if exec[0].Kind != ast.PolicyKindOther || exec[0].Other.Key() != "better-invoke" {
		t.Errorf("incomplete better-invoke should be Other, got %q", exec[0].Kind)
	}
	if exec[1].Kind != ast.PolicyKindIf || !exec[1].Extensions.Has("note") {
		t.Errorf("if policy = %+v", exec[1])
	}

	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w.Message, "timeout") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning naming the missing field, got %v", res.Warnings)
	}
}

func TestParser_Catch(t *testing.T) {
	def, err := NewParser().Parse("testdata/valid/orders.yaml")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	catch := def.Assembly().Catch
	if len(catch) != 3 {
		t.Fatalf("len(Catch) = %d, want 3", len(catch))
	}
	if len(catch[0].Errors) != 2 || catch[0].Errors[1] != "TimeoutError" {
		t.Errorf("catch[0].Errors = %v", catch[0].Errors)
	}
	if !catch[1].Default || len(catch[1].Execute) != 1 {
		t.Errorf("catch[1] = %+v", catch[1])
	}
	if !catch[2].Raw.Has("log") || catch[2].Matches("ConnectionError") {
		t.Errorf("catch[2] should be raw and inert: %+v", catch[2])
	}
}

func TestParser_CatchOptional(t *testing.T) {
	tests := []struct {
		name     string
		assembly string
	}{
		{name: "missing", assembly: "execute: []"},
		{name: "empty", assembly: "execute: []\n    catch: []"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.Replace(schemaDoc, "execute: []", tt.assembly, 1)
			res, err := NewParser().ParseBytesWithWarnings([]byte(doc), "catch.yaml")
			if err != nil {
				t.Fatalf("ParseBytesWithWarnings() error = %v", err)
			}
			if len(res.Warnings) != 0 {
				t.Errorf("Warnings = %v, want none", res.Warnings)
			}
			catch := res.Definition.Assembly().Catch
			if catch == nil || len(catch) != 0 {
				t.Errorf("Catch = %#v, want empty non-nil list", catch)
			}
		})
	}
}

func TestParser_JSON(t *testing.T) {
	def, err := NewParser().Parse("testdata/valid/minimal.json")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if def.Info.Title != "Ping" || def.Method("/ping", "get") == nil {
		t.Errorf("definition = %+v", def)
	}
	if len(def.Assembly().Catch) != 0 || len(def.Assembly().Execute) != 0 {
		t.Errorf("assembly = %+v", def.Assembly())
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		wantType apicErrors.ErrorType
		wantPath string
		minCount int
	}{
		{"ambiguous response", "testdata/invalid/ambiguous-response.yaml", apicErrors.ErrorTypeStructural, "paths./orders.get.responses.200.x-js-error-content", 1},
		{"missing fields", "testdata/invalid/missing-fields.yaml", apicErrors.ErrorTypeStructural, "consumes", 6},
		{"syntax", "testdata/invalid/syntax.yaml", apicErrors.ErrorTypeSyntax, "", 1},
		{"missing file", "testdata/invalid/nope.yaml", apicErrors.ErrorTypeIO, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := NewParser().Parse(tt.file)
			if err == nil {
				t.Fatal("expected an error")
			}
			if def != nil {
				t.Error("no definition may be returned on error")
			}

			var all []*apicErrors.Error
			var list *apicErrors.ErrorList
			var single *apicErrors.Error
			switch {
			case errors.As(err, &list):
				all = list.Errors
			case errors.As(err, &single):
				all = []*apicErrors.Error{single}
			default:
				t.Fatalf("unexpected error type %T", err)
			}

			if len(all) < tt.minCount {
				t.Errorf("got %d errors, want at least %d: %v", len(all), tt.minCount, err)
			}
			if all[0].Type != tt.wantType {
				t.Errorf("Type = %q, want %q", all[0].Type, tt.wantType)
			}
			if tt.wantPath != "" && all[0].Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", all[0].Path, tt.wantPath)
			}
		})
	}
}

func TestParser_MaxDepth(t *testing.T) {
	nested := "- if:\n    condition: \"true\"\n    execute:\n"
	doc := strings.Replace(schemaDoc, "execute: []", "execute:\n"+indent(nested, 6)+indent(nested, 10)+indent("- set-environment: {description: deep}\n", 14), 1)

	if _, err := NewParser().ParseBytes([]byte(doc), "deep.yaml"); err != nil {
		t.Fatalf("default depth should accept the document: %v", err)
	}
	if _, err := NewParser().WithMaxDepth(1).ParseBytes([]byte(doc), "deep.yaml"); err == nil {
		t.Fatal("expected a depth error")
	}
}

func TestParser_MaxFileSize(t *testing.T) {
	_, err := NewParser().WithMaxFileSize(10).ParseBytes([]byte(schemaDoc), "big.yaml")
	var e *apicErrors.Error
	if !errors.As(err, &e) || e.Type != apicErrors.ErrorTypeIO {
		t.Fatalf("expected io error, got %v", err)
	}
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = pad + l
	}
	return strings.Join(lines, "\n") + "\n"
}

func TestParser_SyntaxErrorLocation(t *testing.T) {
	doc := "swagger: \"2.0\"\nbasePath: /\ninfo: a: b\n"
	_, err := NewParser().ParseBytes([]byte(doc), "bad.yaml")
	var perr *apicErrors.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *errors.Error, got %T (%v)", err, err)
	}
	if perr.Type != apicErrors.ErrorTypeSyntax {
		t.Errorf("Type = %q, want syntax", perr.Type)
	}
	if perr.Location.Line != 3 {
		t.Errorf("Line = %d, want 3 (cause: %v)", perr.Location.Line, perr.Cause)
	}
	if perr.Location.File != "bad.yaml" {
		t.Errorf("File = %q", perr.Location.File)
	}
}

func TestSyntaxErrorLine(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"scanner message", errors.New("yaml: line 7: did not find expected key"), 7},
		{"type error", &yaml.TypeError{Errors: []string{"line 4: cannot unmarshal !!seq into string"}}, 4},
		{"root shape", &rootShapeError{kind: "sequence", line: 2}, 2},
		{"no line", errors.New("empty document"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := syntaxErrorLine(tt.err); got != tt.want {
				t.Errorf("syntaxErrorLine() = %d, want %d", got, tt.want)
			}
		})
	}
}
