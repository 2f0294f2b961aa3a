package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fractary/forge/internal/definition"
)

func TestGenerateTool(t *testing.T) {
	dir := t.TempDir()

	res, err := Generate("tool", NewData("linter", "tool", "@me/dev"), dir)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}

	def, err := definition.Load(res.Path)
	if err != nil {
		t.Fatalf("generated definition does not load: %v", err)
	}
	if def.Name != "linter" || def.Type != "tool" || def.Version != "0.1.0" {
		t.Errorf("definition = %+v", def)
	}
}

func TestGenerateAgentHasToolsList(t *testing.T) {
	dir := t.TempDir()

	res, err := Generate("agent", NewData("reviewer", "agent", "@me/dev"), dir)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "tools:") {
		t.Errorf("agent skeleton missing tools list:\n%s", data)
	}
}

func TestGenerateRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "linter.yaml"), []byte("name: linter\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Generate("tool", NewData("linter", "tool", ""), dir); err == nil {
		t.Fatal("existing file must not be overwritten")
	}
}

func TestGenerateUnknownType(t *testing.T) {
	if _, err := Generate("gadget", NewData("x", "gadget", ""), t.TempDir()); err == nil {
		t.Fatal("unknown type must fail")
	}
}
