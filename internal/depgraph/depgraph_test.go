package depgraph

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fractary/forge/internal/config"
	"github.com/fractary/forge/internal/definition"
	"github.com/fractary/forge/internal/errdefs"
	"github.com/fractary/forge/internal/manifest"
	"github.com/fractary/forge/internal/registry"
	"github.com/fractary/forge/internal/workspace"
)

// recordingExecutor notes execution order and fails tools listed in
// failing.
type recordingExecutor struct {
	order   []string
	failing map[string]bool
}

func (e *recordingExecutor) Execute(def *definition.Definition, params map[string]any, opts ExecOptions) (*ToolResult, error) {
	e.order = append(e.order, def.Name)
	if e.failing[def.Name] {
		return &ToolResult{Success: false, Error: "exit status 1", ExitCode: 1}, nil
	}
	return &ToolResult{Success: true, Output: "ok", DurationMS: 1}, nil
}

// newRunner sets up a project whose local tools/ tree holds one YAML
// tool per deps map entry, with depends_on edges per the map values.
func newRunner(t *testing.T, deps map[string][]string, exec Executor) *Runner {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv(workspace.EnvGlobalRoot, filepath.Join(tmp, "global"))

	ws, err := workspace.New(filepath.Join(tmp, "project"))
	if err != nil {
		t.Fatal(err)
	}

	dir := ws.PluginDir(workspace.ScopeLocal, "tools", "@test/kit")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, dependsOn := range deps {
		var sb strings.Builder
		fmt.Fprintf(&sb, "name: %s\ntype: tool\nversion: 1.0.0\n", name)
		if len(dependsOn) > 0 {
			sb.WriteString("depends_on:\n")
			for _, d := range dependsOn {
				fmt.Fprintf(&sb, "  - %s\n", d)
			}
		}
		if err := os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(sb.String()), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.Config{}
	fetcher := manifest.NewFetcher(manifest.NewCache(), nil)
	resolver := registry.New(ws, cfg, fetcher, nil)
	return NewRunner(cfg, resolver, fetcher, exec, nil)
}

func TestCycleDetection(t *testing.T) {
	exec := &recordingExecutor{}
	r := newRunner(t, map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}, exec)

	_, err := r.ExecuteDependencies([]string{"a"}, nil)
	if !errors.Is(err, errdefs.ErrCircularDependency) {
		t.Fatalf("err = %v, want ErrCircularDependency", err)
	}

	var cycle *errdefs.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("err = %T, want *errdefs.CycleError", err)
	}
	want := []string{"a", "b", "c", "a"}
	if len(cycle.Path) != len(want) {
		t.Fatalf("Path = %v, want %v", cycle.Path, want)
	}
	for i := range want {
		if cycle.Path[i] != want[i] {
			t.Fatalf("Path = %v, want %v", cycle.Path, want)
		}
	}
	if len(exec.order) != 0 {
		t.Errorf("tools executed despite cycle: %v", exec.order)
	}
}

func TestDepthFirstOrder(t *testing.T) {
	exec := &recordingExecutor{}
	r := newRunner(t, map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"d"},
		"d": {"e"},
		"e": nil,
	}, exec)

	results, err := r.ExecuteDependencies([]string{"a"}, nil)
	if err != nil {
		t.Fatalf("ExecuteDependencies: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("got %d results, want 5", len(results))
	}

	want := []string{"e", "d", "c", "b", "a"}
	if len(exec.order) != len(want) {
		t.Fatalf("order = %v, want %v", exec.order, want)
	}
	for i := range want {
		if exec.order[i] != want[i] {
			t.Fatalf("order = %v, want %v (dependencies run before dependents)", exec.order, want)
		}
	}
}

func TestSharedDependencyRunsOnce(t *testing.T) {
	exec := &recordingExecutor{}
	r := newRunner(t, map[string][]string{
		"a":      {"common"},
		"b":      {"common"},
		"common": nil,
	}, exec)

	results, err := r.ExecuteDependencies([]string{"a", "b"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}

	runs := 0
	for _, name := range exec.order {
		if name == "common" {
			runs++
		}
	}
	if runs != 1 {
		t.Errorf("common executed %d times, want 1", runs)
	}
}

func TestFailFast(t *testing.T) {
	exec := &recordingExecutor{failing: map[string]bool{"b": true}}
	r := newRunner(t, map[string][]string{
		"a": {"b", "c"},
		"b": nil,
		"c": nil,
	}, exec)

	results, err := r.ExecuteDependencies([]string{"a"}, nil)
	if err == nil {
		t.Fatal("failing dependency must abort the batch")
	}
	if !strings.Contains(err.Error(), "b failed") {
		t.Errorf("err = %v", err)
	}

	// c and a never ran; b's result is still reported.
	for _, name := range exec.order {
		if name == "c" || name == "a" {
			t.Errorf("%s executed after failure", name)
		}
	}
	if res, ok := results["b"]; !ok || res.Success {
		t.Errorf("results[b] = %+v", res)
	}
}

func TestUnresolvableDependency(t *testing.T) {
	exec := &recordingExecutor{}
	r := newRunner(t, map[string][]string{"a": {"ghost"}}, exec)

	_, err := r.ExecuteDependencies([]string{"a"}, nil)
	if !errors.Is(err, errdefs.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
