package apic

import "testing"

func TestParseAndValidate(t *testing.T) {
	def, report, err := ParseAndValidate("parser/testdata/valid/orders.yaml")
	if err != nil {
		t.Fatalf("ParseAndValidate() failed: %v", err)
	}
	if def.Info.Title != "Orders" {
		t.Errorf("Title = %q", def.Info.Title)
	}
	if !report.HasWarnings() {
		t.Error("expected warnings for the gatewayscript policy and raw catch clause")
	}
}

func TestParseAndValidate_ParseError(t *testing.T) {
	if _, _, err := ParseAndValidate("parser/testdata/invalid/ambiguous-response.yaml"); err == nil {
		t.Fatal("expected a parse error")
	}
}
