package main

import (
	"encoding/json"
	"strings"
	"testing"

	"switchboard-hq/switchboard/pkg/apic"
	"switchboard-hq/switchboard/pkg/cli"
)

func TestInspectTree(t *testing.T) {
	file := writeDefinition(t, t.TempDir(), "items.yaml", "Items", "/shop", "http://backend.local")
	def, err := apic.Parse(file)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	in, err := inspect(def, "")
	if err != nil {
		t.Fatalf("inspect() error = %v", err)
	}
	if in.API != "Items@1.0.0" || in.BasePath != "/shop" {
		t.Errorf("header = %s %s", in.API, in.BasePath)
	}
	if got := strings.Join(in.Operations, ","); got != "get /items,get /items/{id}" {
		t.Errorf("Operations = %s", got)
	}
	if len(in.Policies) != 2 || in.Policies[1].Kind != "operation-switch" {
		t.Fatalf("Policies = %+v", in.Policies)
	}
	if n := len(in.Policies[1].Branches); n != 2 {
		t.Errorf("switch has %d branches, want 2", n)
	}
	if len(in.Catch) != 1 || in.Catch[0].Errors[0] != "ConnectionError" {
		t.Errorf("Catch = %+v", in.Catch)
	}

	var b strings.Builder
	if err := in.WriteText(&b); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"execute:", "case 1:", "better-invoke  GET http://backend.local/items timeout=5", "forever", "catch ConnectionError:"} {
		if !strings.Contains(b.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, b.String())
		}
	}
}

func TestInspectOperation(t *testing.T) {
	file := writeDefinition(t, t.TempDir(), "items.yaml", "Items", "/shop", "http://backend.local")
	def, err := apic.Parse(file)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		name      string
		operation string
		matched   bool
		caseIndex int
		kinds     []string
	}{
		{name: "first case", operation: "get /items", matched: true, caseIndex: 0, kinds: []string{"better-invoke", "response-handler"}},
		{name: "second case", operation: "get /items/{id}", matched: true, caseIndex: 1, kinds: []string{"if"}},
		{name: "verb is case sensitive", operation: "GET /items", matched: false},
		{name: "undeclared", operation: "post /items", matched: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := inspect(def, tt.operation)
			if err != nil {
				t.Fatalf("inspect() error = %v", err)
			}
			if in.Matched == nil || *in.Matched != tt.matched {
				t.Fatalf("Matched = %v, want %v", in.Matched, tt.matched)
			}
			if !tt.matched {
				if len(in.Policies) != 0 {
					t.Errorf("unmatched operation has %d policies", len(in.Policies))
				}
				return
			}
			if *in.CaseIndex != tt.caseIndex {
				t.Errorf("CaseIndex = %d, want %d", *in.CaseIndex, tt.caseIndex)
			}
			var kinds []string
			for _, n := range in.Policies {
				kinds = append(kinds, n.Kind)
			}
			if strings.Join(kinds, ",") != strings.Join(tt.kinds, ",") {
				t.Errorf("policies = %v, want %v", kinds, tt.kinds)
			}
		})
	}
}

func TestInspectBadOperation(t *testing.T) {
	file := writeDefinition(t, t.TempDir(), "items.yaml", "Items", "/shop", "http://backend.local")
	def, err := apic.Parse(file)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := inspect(def, "/items"); cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("ExitCode() = %d, want %d (err %v)", cli.ExitCode(err), cli.ExitConfig, err)
	}
}

func TestInspectDefinitionJSON(t *testing.T) {
	cfgFile = ""
	inspectFlags.format = "json"
	inspectFlags.operation = "get /items"
	t.Cleanup(func() { inspectFlags.operation = "" })

	file := writeDefinition(t, t.TempDir(), "items.yaml", "Items", "/shop", "http://backend.local")
	cmd, buf := testCommand()
	if err := inspectDefinition(cmd, []string{file}); err != nil {
		t.Fatalf("inspectDefinition() error = %v", err)
	}

	var got struct {
		Operation string `json:"operation"`
		Matched   bool   `json:"matched"`
		CaseIndex int    `json:"case_index"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got.Operation != "get /items" || !got.Matched || got.CaseIndex != 0 {
		t.Errorf("output = %+v", got)
	}
}
