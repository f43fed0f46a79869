package ast

import "testing"

func TestErrorCode_Normalization(t *testing.T) {
	tests := []struct {
		name string
		got  ErrorCode
		want ErrorCode
	}{
		{"integer", ErrorCodeFromInt(200), "200"},
		{"integral float", ErrorCodeFromFloat(200.0), "200"},
		{"string", ErrorCodeFromString("200"), "200"},
		{"padded string", ErrorCodeFromString(" 200 "), "200"},
		{"float string", ErrorCodeFromString("200.0"), "200"},
		{"fractional float", ErrorCodeFromFloat(1.5), "1.5"},
		{"negative", ErrorCodeFromInt(-1), "-1"},
		{"symbolic string", ErrorCodeFromString("E_NOT_FOUND"), "E_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestErrorCode_SameValueAcrossRepresentations(t *testing.T) {
	a := ErrorCodeFromInt(404)
	b := ErrorCodeFromFloat(404.0)
	c := ErrorCodeFromString("404")
	if a != b || b != c {
		t.Fatalf("representations differ: %q %q %q", a, b, c)
	}
	if n, ok := a.Int(); !ok || n != 404 {
		t.Errorf("Int() = %d, %v; want 404, true", n, ok)
	}
}

func TestErrorCode_Int(t *testing.T) {
	if _, ok := ErrorCode("1.5").Int(); ok {
		t.Error("Int() on fractional code should fail")
	}
	if _, ok := ErrorCode("E_X").Int(); ok {
		t.Error("Int() on symbolic code should fail")
	}
	if !ErrorCode("").IsZero() {
		t.Error("empty code should be zero")
	}
}

func TestResponse_SchemaAccessors(t *testing.T) {
	resp := &Response{
		Description: "ok",
		Schemas: []ResponseSchema{
			{Kind: SchemaKindError, Error: &ErrorSchema{Code: "500", Message: "boom"}},
			{Kind: SchemaKindContent, Content: &ContentSchema{Path: "$.data", Property: "items"}},
		},
	}

	if cs := resp.ContentSchema(); cs == nil || cs.Property != "items" {
		t.Errorf("ContentSchema() = %+v", cs)
	}
	if es := resp.ErrorSchema(); es == nil || es.Message != "boom" {
		t.Errorf("ErrorSchema() = %+v", es)
	}

	var nilResp *Response
	if nilResp.ContentSchema() != nil || nilResp.ErrorSchema() != nil {
		t.Error("nil response should have no schemas")
	}
}

func TestMethod_ResponseFallsBackToDefault(t *testing.T) {
	m := &Method{Responses: map[int]*Response{
		200:                 {Description: "ok"},
		DefaultResponseCode: {Description: "fallback"},
	}}
	if got := m.Response(200).Description; got != "ok" {
		t.Errorf("Response(200) = %q", got)
	}
	if got := m.Response(503).Description; got != "fallback" {
		t.Errorf("Response(503) = %q, want fallback", got)
	}
}
