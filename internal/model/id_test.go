package model

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	types := []IDType{IDTypeCommand, IDTypeWorkflow, IDTypeSession, IDTypeCorrelation}
	prefixes := []string{"cmd_", "wf_", "run_", "cor_"}

	for i, idType := range types {
		t.Run(string(idType), func(t *testing.T) {
			id, err := GenerateID(idType)
			if err != nil {
				t.Fatalf("GenerateID(%s) returned error: %v", idType, err)
			}
			if !ValidateID(id) {
				t.Errorf("generated ID %q does not match regex", id)
			}
			if !strings.HasPrefix(id, prefixes[i]) {
				t.Errorf("expected prefix %q, got %q", prefixes[i], id)
			}
		})
	}
}

func TestGenerateID_InvalidType(t *testing.T) {
	_, err := GenerateID("invalid")
	if err == nil {
		t.Error("expected error for invalid ID type")
	}
}

func TestGenerateID_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := MustGenerateID(IDTypeCorrelation)
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"valid command", "cmd_0f1e2d3c4b5a69788796a5b4c3d2e1f0", true},
		{"valid session", "run_0f1e2d3c4b5a69788796a5b4c3d2e1f0", true},
		{"invalid prefix", "xxx_0f1e2d3c4b5a69788796a5b4c3d2e1f0", false},
		{"dashed uuid", "cmd_0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0", false},
		{"uppercase hex", "cmd_0F1E2D3C4B5A69788796A5B4C3D2E1F0", false},
		{"short hex", "cmd_0f1e2d3c", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateID(tt.id); got != tt.valid {
				t.Errorf("ValidateID(%q) = %v, want %v", tt.id, got, tt.valid)
			}
		})
	}
}

func TestParseIDType(t *testing.T) {
	id := MustGenerateID(IDTypeSession)
	got, err := ParseIDType(id)
	if err != nil {
		t.Fatalf("ParseIDType(%q): %v", id, err)
	}
	if got != IDTypeSession {
		t.Errorf("ParseIDType(%q) = %q, want %q", id, got, IDTypeSession)
	}

	if _, err := ParseIDType("nope"); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestNewMetaData(t *testing.T) {
	meta := NewMetaData("Open Finder")
	if !meta.IsEnabled {
		t.Error("new metadata should be enabled")
	}
	if meta.Notification {
		t.Error("new metadata should not notify by default")
	}
	if typ, err := ParseIDType(meta.ID); err != nil || typ != IDTypeCommand {
		t.Errorf("meta.ID = %q, want a command id", meta.ID)
	}
}
