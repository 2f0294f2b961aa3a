package depgraph

import (
	"fmt"
	"log/slog"

	"github.com/fractary/forge/internal/config"
	"github.com/fractary/forge/internal/definition"
	"github.com/fractary/forge/internal/errdefs"
	"github.com/fractary/forge/internal/manifest"
	"github.com/fractary/forge/internal/registry"
)

// ToolResult is the outcome of executing one tool dependency.
type ToolResult struct {
	Success    bool   `json:"success"`
	Output     string `json:"output"`
	Timeout    bool   `json:"timeout"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	ExitCode   int    `json:"exit_code,omitempty"`
}

// ExecOptions are passed through to the executor per invocation.
type ExecOptions struct {
	TimeoutMS int64
}

// Executor runs one resolved tool definition. Implemented outside this
// package; execution of tool payloads is not this system's concern.
type Executor interface {
	Execute(def *definition.Definition, params map[string]any, opts ExecOptions) (*ToolResult, error)
}

// Runner walks a tool's depends_on graph depth-first, executing each
// dependency before its dependents and failing fast on the first
// failure or cycle.
type Runner struct {
	cfg      *config.Config
	resolver *registry.Resolver
	fetcher  *manifest.Fetcher
	executor Executor
	logger   *slog.Logger
	timeout  int64
}

// NewRunner creates a Runner. A nil logger falls back to slog.Default().
func NewRunner(cfg *config.Config, resolver *registry.Resolver, fetcher *manifest.Fetcher, executor Executor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:      cfg,
		resolver: resolver,
		fetcher:  fetcher,
		executor: executor,
		logger:   logger,
		timeout:  defaultTimeoutMS,
	}
}

const defaultTimeoutMS = 60_000

// ExecuteDependencies resolves and executes every named dependency and,
// recursively, their depends_on lists. The execution stack is scoped to
// this call, so concurrent top-level calls never interfere. On failure
// the returned map holds the results collected so far.
func (r *Runner) ExecuteDependencies(depNames []string, params map[string]any) (map[string]*ToolResult, error) {
	results := make(map[string]*ToolResult)
	stack := make(map[string]bool)
	var path []string

	for _, name := range depNames {
		if err := r.execute(name, params, stack, &path, results); err != nil {
			return results, err
		}
	}
	return results, nil
}

// execute runs one dependency node: cycle check, resolve, recurse into
// its own dependencies, then hand off to the executor. The node is
// popped from the stack on every exit path.
func (r *Runner) execute(name string, params map[string]any, stack map[string]bool, path *[]string, results map[string]*ToolResult) error {
	if stack[name] {
		return &errdefs.CycleError{Path: append(append([]string(nil), *path...), name)}
	}
	if _, done := results[name]; done {
		return nil
	}

	stack[name] = true
	*path = append(*path, name)
	defer func() {
		delete(stack, name)
		*path = (*path)[:len(*path)-1]
	}()

	def, err := r.resolveDefinition(name)
	if err != nil {
		return fmt.Errorf("resolving dependency %s: %w", name, err)
	}

	for _, dep := range def.DependsOn {
		if err := r.execute(dep, params, stack, path, results); err != nil {
			return err
		}
	}

	res, err := r.executor.Execute(def, params, ExecOptions{TimeoutMS: r.timeout})
	if err != nil {
		return fmt.Errorf("executing dependency %s: %w", name, err)
	}
	results[name] = res

	if !res.Success {
		return fmt.Errorf("dependency %s failed: %s", name, res.Error)
	}

	r.logger.Debug("executed dependency", "tool", name, "duration_ms", res.DurationMS)
	return nil
}

// resolveDefinition fetches and parses a tool definition via the
// three-tier resolver.
func (r *Runner) resolveDefinition(name string) (*definition.Definition, error) {
	rc, err := r.resolver.Resolve(name, registry.TypeTool, registry.ResolveOptions{})
	if err != nil {
		return nil, err
	}

	if rc.Path != "" {
		return definition.Load(rc.Path)
	}

	var token string
	if reg := r.cfg.Registry(rc.Source); reg != nil {
		token = reg.AuthToken
	}
	data, err := r.fetcher.FetchFile(rc.URL, token)
	if err != nil {
		return nil, err
	}
	return definition.Parse(data, rc.URL)
}
