package validator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"gopkg.in/yaml.v3"
)

// SwaggerLinter checks the Swagger 2.0 body of a document with kin-openapi.
// The gateway does not depend on a fully valid Swagger body, so findings are advisory.
type SwaggerLinter struct{}

// NewSwaggerLinter creates a new linter.
func NewSwaggerLinter() *SwaggerLinter {
	return &SwaggerLinter{}
}

// Lint converts the document to OpenAPI 3 and validates it.
func (l *SwaggerLinter) Lint(ctx context.Context, data []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}

	// yaml.v3 keeps integer keys (status codes) as non-string keys; JSON needs strings.
	body, err := json.Marshal(stringKeys(raw))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	var v2 openapi2.T
	if err := json.Unmarshal(body, &v2); err != nil {
		return fmt.Errorf("decode swagger 2.0: %w", err)
	}

	v3, err := openapi2conv.ToV3(&v2)
	if err != nil {
		return fmt.Errorf("convert to openapi 3: %w", err)
	}
	if err := v3.Validate(ctx); err != nil {
		return fmt.Errorf("swagger lint: %w", err)
	}
	return nil
}

func stringKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = stringKeys(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []interface{}:
		for i, val := range t {
			t[i] = stringKeys(val)
		}
		return t
	default:
		return v
	}
}
