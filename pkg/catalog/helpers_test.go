package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// definitionYAML renders a minimal definition declaring the given paths,
// each with a get operation.
func definitionYAML(title, basePath string, paths ...string) string {
	doc := fmt.Sprintf(`swagger: "2.0"
info:
  version: 1.0.0
  title: %s
  description: test
basePath: %s
consumes: [application/json]
produces: [application/json]
schemes: [http]
paths:
`, title, basePath)
	for _, p := range paths {
		doc += fmt.Sprintf("  %s:\n    get:\n      responses:\n        200:\n          description: ok\n", p)
	}
	doc += `x-ibm-configuration:
  assembly:
    execute:
      - set-environment:
          description: noop
`
	return doc
}

const malformedYAML = `swagger: "2.0"
info:
  version: 1.0.0
  title: Broken
  description: bad response schema
basePath: /
consumes: []
produces: []
schemes: [http]
paths:
  /orders:
    get:
      responses:
        200:
          description: broken
          x-js-error-content:
            detail: neither shape
x-ibm-configuration:
  assembly:
    execute: []
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
