package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fractary/forge/internal/config"
	"github.com/fractary/forge/internal/errdefs"
	"github.com/fractary/forge/internal/manifest"
	"github.com/fractary/forge/internal/registry"
	"github.com/fractary/forge/internal/workspace"
)

type staticScanner struct {
	agents []string
	tools  []string
}

func (s *staticScanner) DiscoverUsedAgents() ([]string, error) { return s.agents, nil }
func (s *staticScanner) DiscoverUsedTools() ([]string, error)  { return s.tools, nil }

func newManager(t *testing.T) (*Manager, *workspace.Workspace) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv(workspace.EnvGlobalRoot, filepath.Join(tmp, "global"))

	ws, err := workspace.New(filepath.Join(tmp, "project"))
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{}
	fetcher := manifest.NewFetcher(manifest.NewCache(), nil)
	resolver := registry.New(ws, cfg, fetcher, nil)
	return NewManager(ws, cfg, resolver, fetcher, nil), ws
}

func writeDef(t *testing.T, ws *workspace.Workspace, category, plugin, name, content string) string {
	t.Helper()
	dir := ws.PluginDir(workspace.ScopeLocal, category, plugin)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name+".yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func seedProject(t *testing.T, ws *workspace.Workspace) {
	writeDef(t, ws, "agents", "@acme/devkit", "reviewer",
		"name: reviewer\ntype: agent\nversion: 2.0.0\ntools:\n  - linter\n")
	writeDef(t, ws, "tools", "@acme/devkit", "linter",
		"name: linter\ntype: tool\nversion: 1.2.0\ndepends_on:\n  - formatter\n")
	writeDef(t, ws, "tools", "@acme/devkit", "formatter",
		"name: formatter\ntype: tool\nversion: 0.3.0\n")
}

func TestGenerateLocksAgentsAndToolClosure(t *testing.T) {
	m, ws := newManager(t)
	seedProject(t, ws)

	lf, err := m.Generate(&staticScanner{agents: []string{"reviewer"}}, GenerateOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	agent, ok := lf.Agents["reviewer"]
	if !ok {
		t.Fatal("reviewer not locked")
	}
	if agent.Version != "2.0.0" || agent.Resolved != "local" {
		t.Errorf("agent entry = %+v", agent)
	}
	if agent.Dependencies == nil || agent.Dependencies.Tools["linter"] != "1.2.0" {
		t.Errorf("agent dependencies = %+v", agent.Dependencies)
	}

	// linter comes from the agent's tools list, formatter from linter's
	// depends_on.
	if lf.Tools["linter"].Version != "1.2.0" {
		t.Errorf("linter entry = %+v", lf.Tools["linter"])
	}
	if lf.Tools["formatter"].Version != "0.3.0" {
		t.Errorf("formatter entry = %+v", lf.Tools["formatter"])
	}

	raw, err := os.ReadFile(filepath.Join(ws.PluginDir(workspace.ScopeLocal, "tools", "@acme/devkit"), "linter.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if lf.Tools["linter"].Integrity != manifest.ComputeChecksum(raw) {
		t.Error("integrity does not match file content hash")
	}

	if _, err := os.Stat(ws.LockfilePath()); err != nil {
		t.Errorf("lockfile not persisted: %v", err)
	}
}

func TestGenerateIdempotentWithoutForce(t *testing.T) {
	m, ws := newManager(t)
	seedProject(t, ws)

	scanner := &staticScanner{agents: []string{"reviewer"}}
	first, err := m.Generate(scanner, GenerateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	// A new tool appears, but without force the old snapshot stands.
	writeDef(t, ws, "tools", "@acme/devkit", "scanner",
		"name: scanner\ntype: tool\nversion: 9.0.0\n")
	scanner.tools = []string{"scanner"}

	second, err := m.Generate(scanner, GenerateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := second.Tools["scanner"]; ok {
		t.Error("regeneration happened without force")
	}
	if len(second.Tools) != len(first.Tools) {
		t.Errorf("tool count changed: %d -> %d", len(first.Tools), len(second.Tools))
	}

	forced, err := m.Generate(scanner, GenerateOptions{Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := forced.Tools["scanner"]; !ok {
		t.Error("force did not regenerate")
	}
}

func TestLockfileRoundTrip(t *testing.T) {
	m, ws := newManager(t)
	seedProject(t, ws)

	generated, err := m.Generate(&staticScanner{agents: []string{"reviewer"}, tools: []string{"formatter"}}, GenerateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Version != CurrentVersion {
		t.Errorf("Version = %d", loaded.Version)
	}
	if len(loaded.Agents) != len(generated.Agents) || len(loaded.Tools) != len(generated.Tools) {
		t.Fatalf("entry counts differ after round trip")
	}
	for name, want := range generated.Tools {
		got := loaded.Tools[name]
		if got.Version != want.Version || got.Integrity != want.Integrity || got.Resolved != want.Resolved {
			t.Errorf("tool %s differs: %+v vs %+v", name, got, want)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	m, ws := newManager(t)

	if _, err := m.Load(); !errors.Is(err, errdefs.ErrLockfileNotFound) {
		t.Errorf("missing lockfile: err = %v", err)
	}

	path := ws.LockfilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	os.WriteFile(path, []byte("{not json"), 0o644)
	if _, err := m.Load(); !errors.Is(err, errdefs.ErrLockfileParse) {
		t.Errorf("malformed lockfile: err = %v", err)
	}

	os.WriteFile(path, []byte(`{"version": 99, "agents": {}, "tools": {}}`), 0o644)
	if _, err := m.Load(); !errors.Is(err, errdefs.ErrLockfileVersionUnsupported) {
		t.Errorf("future version: err = %v", err)
	}
}

func TestValidateDetectsDrift(t *testing.T) {
	m, ws := newManager(t)
	seedProject(t, ws)

	lf, err := m.Generate(&staticScanner{agents: []string{"reviewer"}}, GenerateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	clean, err := m.Validate(lf)
	if err != nil {
		t.Fatal(err)
	}
	if !clean.Valid || len(clean.Errors) != 0 {
		t.Fatalf("unmodified project must validate: %+v", clean.Errors)
	}

	// Edit a locked file: integrity drift, never repaired.
	linterPath := filepath.Join(ws.PluginDir(workspace.ScopeLocal, "tools", "@acme/devkit"), "linter.yaml")
	if err := os.WriteFile(linterPath, []byte("name: linter\ntype: tool\nversion: 1.2.1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	drifted, err := m.Validate(lf)
	if err != nil {
		t.Fatal(err)
	}
	if drifted.Valid {
		t.Fatal("drift not detected")
	}
	found := false
	for _, issue := range drifted.Errors {
		if issue.Name == "linter" && issue.Kind == "integrity_mismatch" {
			found = true
		}
	}
	if !found {
		t.Errorf("no integrity_mismatch for linter: %+v", drifted.Errors)
	}

	// Remove another locked file: missing error.
	os.Remove(filepath.Join(ws.PluginDir(workspace.ScopeLocal, "tools", "@acme/devkit"), "formatter.yaml"))
	gone, err := m.Validate(lf)
	if err != nil {
		t.Fatal(err)
	}
	found = false
	for _, issue := range gone.Errors {
		if issue.Name == "formatter" && issue.Kind == "missing" {
			found = true
		}
	}
	if !found {
		t.Errorf("no missing error for formatter: %+v", gone.Errors)
	}
}

func TestGenerateValidateOption(t *testing.T) {
	m, ws := newManager(t)
	seedProject(t, ws)

	if _, err := m.Generate(&staticScanner{agents: []string{"reviewer"}}, GenerateOptions{Validate: true}); err != nil {
		t.Fatalf("Generate with validation: %v", err)
	}
}
