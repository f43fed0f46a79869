package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

const definitionTemplate = `swagger: "2.0"
info:
  version: 1.0.0
  title: %[1]s
basePath: %[2]s
paths:
  /items:
    get:
      responses:
        200:
          description: ok
  /items/{id}:
    get:
      responses:
        200:
          description: ok
x-ibm-configuration:
  assembly:
    execute:
      - set-environment:
          description: annotation only
      - operation-switch:
          title: route
          case:
            - operations:
                - path: /items
                  verb: get
              execute:
                - better-invoke:
                    target-url: %[3]s/items
                    timeout: 5
                    verb: GET
                - response-handler:
                    set-headers:
                      X-Source: backend
            - operations:
                - path: /items/{id}
                  verb: get
              execute:
                - if:
                    condition: "request.path != ''"
                    execute:
                      - better-invoke:
                          target-url: %[3]s/items
                          timeout: 5
                          verb: GET
                          forever: true
    catch:
      - errors: [ConnectionError]
        execute:
          - response-handler:
              success-code: 503
`

// writeDefinition writes a definition for title under basePath whose invokes
// call target.
func writeDefinition(t *testing.T, dir, name, title, basePath, target string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data := fmt.Sprintf(definitionTemplate, title, basePath, target)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// testCommand returns a command whose output is captured.
func testCommand() (*cobra.Command, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd, buf
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	want := []string{"run", "validate", "inspect", "evidence", "version", "completion"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command has no %q subcommand", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	cmd, buf := testCommand()
	versionCmd.Run(cmd, nil)

	if !bytes.Contains(buf.Bytes(), []byte("Switchboard "+Version)) {
		t.Errorf("version output = %q", buf.String())
	}
}
