package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/fractary/forge/internal/config"
	"github.com/fractary/forge/internal/definition"
	"github.com/fractary/forge/internal/errdefs"
	"github.com/fractary/forge/internal/manifest"
	"github.com/fractary/forge/internal/registry"
	"github.com/fractary/forge/internal/workspace"
)

// UsageScanner discovers the agent and tool names a project actually
// references. Generate locks exactly this set plus its transitive tool
// closure.
type UsageScanner interface {
	DiscoverUsedAgents() ([]string, error)
	DiscoverUsedTools() ([]string, error)
}

// InstalledScanner is the default UsageScanner: everything installed
// under the project-local tree counts as used.
type InstalledScanner struct {
	Resolver *registry.Resolver
}

func (s *InstalledScanner) DiscoverUsedAgents() ([]string, error) {
	return s.installedNames(registry.TypeAgent)
}

func (s *InstalledScanner) DiscoverUsedTools() ([]string, error) {
	return s.installedNames(registry.TypeTool)
}

func (s *InstalledScanner) installedNames(typ string) ([]string, error) {
	components, err := s.Resolver.ListInstalled(typ, registry.SourceLocal)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(components))
	for _, c := range components {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names, nil
}

// GenerateOptions control lockfile generation.
type GenerateOptions struct {
	Force    bool // regenerate even when a lockfile exists
	Validate bool // run Validate on the result and fail on errors
}

// ValidationIssue describes one problem found by Validate.
type ValidationIssue struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Kind   string `json:"kind"` // "missing" or "integrity_mismatch"
	Detail string `json:"detail"`
}

// ValidationResult is the outcome of Validate. Valid is true iff Errors
// is empty; Warnings never affect validity.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// Manager generates, persists, and validates the project lockfile.
type Manager struct {
	ws       *workspace.Workspace
	cfg      *config.Config
	resolver *registry.Resolver
	fetcher  *manifest.Fetcher
	logger   *slog.Logger
}

// NewManager creates a Manager. A nil logger falls back to slog.Default().
func NewManager(ws *workspace.Workspace, cfg *config.Config, resolver *registry.Resolver, fetcher *manifest.Fetcher, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{ws: ws, cfg: cfg, resolver: resolver, fetcher: fetcher, logger: logger}
}

// Generate builds and persists the lockfile from the scanner's usage
// set. An existing lockfile is returned unchanged unless Force is set.
// Every tool referenced by a locked agent's tools list is locked too,
// recursively through tool depends_on lists.
func (m *Manager) Generate(scanner UsageScanner, opts GenerateOptions) (*Lockfile, error) {
	if !opts.Force {
		existing, err := m.Load()
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, errdefs.ErrLockfileNotFound) {
			return nil, err
		}
	}

	agents, err := scanner.DiscoverUsedAgents()
	if err != nil {
		return nil, fmt.Errorf("discovering used agents: %w", err)
	}
	tools, err := scanner.DiscoverUsedTools()
	if err != nil {
		return nil, fmt.Errorf("discovering used tools: %w", err)
	}

	lf := New()
	pending := append([]string(nil), tools...)

	for _, name := range agents {
		entry, def, err := m.lockEntry(name, registry.TypeAgent)
		if err != nil {
			return nil, err
		}

		if len(def.Tools) > 0 {
			deps := &Dependencies{Tools: make(map[string]string, len(def.Tools))}
			for _, toolName := range def.Tools {
				deps.Tools[toolName] = "" // filled once the tool is locked
				pending = append(pending, toolName)
			}
			entry.Dependencies = deps
		}
		lf.Agents[name] = entry
	}

	for len(pending) > 0 {
		name := pending[0]
		pending = pending[1:]
		if lf.HasTool(name) {
			continue
		}

		entry, def, err := m.lockEntry(name, registry.TypeTool)
		if err != nil {
			return nil, err
		}
		lf.Tools[name] = entry
		pending = append(pending, def.DependsOn...)
	}

	// Backfill agent dependency versions now that every tool is locked.
	for agentName, entry := range lf.Agents {
		if entry.Dependencies == nil {
			continue
		}
		for toolName := range entry.Dependencies.Tools {
			if locked, ok := lf.Tools[toolName]; ok {
				entry.Dependencies.Tools[toolName] = locked.Version
			}
		}
		lf.Agents[agentName] = entry
	}

	if opts.Validate {
		result, err := m.Validate(lf)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, fmt.Errorf("generated lockfile failed validation: %d error(s)", len(result.Errors))
		}
	}

	if err := m.Save(lf); err != nil {
		return nil, err
	}

	m.logger.Info("generated lockfile",
		"agents", len(lf.Agents), "tools", len(lf.Tools), "path", m.ws.LockfilePath())
	return lf, nil
}

// Load reads the project lockfile.
func (m *Manager) Load() (*Lockfile, error) {
	path := m.ws.LockfilePath()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", errdefs.ErrLockfileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading lockfile %s: %w", path, err)
	}

	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrLockfileParse, err)
	}
	if lf.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", errdefs.ErrLockfileVersionUnsupported, lf.Version)
	}
	if lf.Agents == nil {
		lf.Agents = make(map[string]Entry)
	}
	if lf.Tools == nil {
		lf.Tools = make(map[string]Entry)
	}
	return &lf, nil
}

// Save persists the lockfile, creating parent directories and replacing
// any existing file atomically.
func (m *Manager) Save(lf *Lockfile) error {
	return write(lf, m.ws.LockfilePath())
}

// Validate re-resolves every locked entry at its locked version and
// recomputes its integrity hash. A nil lockfile validates the one on
// disk. Mismatches are reported, never repaired.
func (m *Manager) Validate(lf *Lockfile) (*ValidationResult, error) {
	if lf == nil {
		loaded, err := m.Load()
		if err != nil {
			return nil, err
		}
		lf = loaded
	}

	result := &ValidationResult{}
	m.validateGroup(lf.Agents, registry.TypeAgent, result)
	m.validateGroup(lf.Tools, registry.TypeTool, result)
	result.Valid = len(result.Errors) == 0
	return result, nil
}

func (m *Manager) validateGroup(entries map[string]Entry, typ string, result *ValidationResult) {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := entries[name]
		data, _, err := m.resolveBytes(name, typ, entry.Version)
		if err != nil {
			result.Errors = append(result.Errors, ValidationIssue{
				Name: name, Type: typ, Kind: "missing", Detail: err.Error(),
			})
			continue
		}
		actual := manifest.ComputeChecksum(data)
		if actual != entry.Integrity {
			result.Errors = append(result.Errors, ValidationIssue{
				Name: name, Type: typ, Kind: "integrity_mismatch",
				Detail: (&errdefs.IntegrityError{Name: name, Expected: entry.Integrity, Actual: actual}).Error(),
			})
		}
	}
}

// lockEntry resolves one definition and builds its lockfile entry.
func (m *Manager) lockEntry(name, typ string) (Entry, *definition.Definition, error) {
	data, rc, err := m.resolveBytes(name, typ, "")
	if err != nil {
		return Entry{}, nil, err
	}

	def, err := definition.Parse(data, rc.Path)
	if err != nil {
		return Entry{}, nil, err
	}

	version := def.Version
	if version == "" {
		version = rc.Version
	}

	return Entry{
		Version:   version,
		Resolved:  rc.Source,
		Integrity: manifest.ComputeChecksum(data),
	}, def, nil
}

// resolveBytes resolves name/typ and returns the definition's canonical
// bytes: file contents for local and global hits, fetched payload for
// registry hits.
func (m *Manager) resolveBytes(name, typ, versionConstraint string) ([]byte, *registry.ResolvedComponent, error) {
	rc, err := m.resolver.Resolve(name, typ, registry.ResolveOptions{Version: versionConstraint})
	if err != nil {
		return nil, nil, err
	}

	if rc.Path != "" {
		data, err := os.ReadFile(rc.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", rc.Path, err)
		}
		return data, rc, nil
	}

	var token string
	if reg := m.cfg.Registry(rc.Source); reg != nil {
		token = reg.AuthToken
	}
	data, err := m.fetcher.FetchFile(rc.URL, token)
	if err != nil {
		return nil, nil, err
	}
	return data, rc, nil
}
