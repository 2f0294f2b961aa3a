package update

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/fractary/forge/internal/config"
	"github.com/fractary/forge/internal/errdefs"
	"github.com/fractary/forge/internal/installer"
	"github.com/fractary/forge/internal/lockfile"
	"github.com/fractary/forge/internal/manifest"
	"github.com/fractary/forge/internal/registry"
	"github.com/fractary/forge/internal/version"
	"github.com/fractary/forge/internal/workspace"
)

// Info describes one available update for a locked definition.
type Info struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Current    string `json:"current"`
	Latest     string `json:"latest"`
	IsBreaking bool   `json:"is_breaking"`
}

// Check is the result of scanning every locked entry for newer remote
// versions.
type Check struct {
	HasUpdates      bool   `json:"has_updates"`
	Updates         []Info `json:"updates"`
	BreakingChanges []Info `json:"breaking_changes"`
}

// Options control one update run. Breaking updates are skipped unless
// AllowBreaking is set.
type Options struct {
	AllowBreaking bool
	DryRun        bool
	Packages      []string // restrict to these names; empty means all
}

// Skipped records an update that was classified but not applied.
type Skipped struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Failed records a per-package update failure. Failures never abort the
// batch.
type Failed struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Result reports what one update run did.
type Result struct {
	Updated []Info    `json:"updated"`
	Failed  []Failed  `json:"failed"`
	Skipped []Skipped `json:"skipped"`
	DryRun  bool      `json:"dry_run"`
}

// Manager detects, classifies, applies, and rolls back version changes
// against the project lockfile and the install-tracking records.
type Manager struct {
	ws       *workspace.Workspace
	cfg      *config.Config
	resolver *registry.Resolver
	fetcher  *manifest.Fetcher
	locks    *lockfile.Manager
	logger   *slog.Logger
}

// NewManager creates a Manager. A nil logger falls back to slog.Default().
func NewManager(ws *workspace.Workspace, cfg *config.Config, resolver *registry.Resolver, fetcher *manifest.Fetcher, locks *lockfile.Manager, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{ws: ws, cfg: cfg, resolver: resolver, fetcher: fetcher, locks: locks, logger: logger}
}

// CheckUpdates resolves the latest remote version for every locked
// entry and classifies each available update. A definition whose latest
// version cannot be resolved remotely is simply not listed.
func (m *Manager) CheckUpdates() (*Check, error) {
	lf, err := m.locks.Load()
	if err != nil {
		return nil, err
	}

	check := &Check{}
	m.checkGroup(lf.Agents, registry.TypeAgent, check)
	m.checkGroup(lf.Tools, registry.TypeTool, check)
	check.HasUpdates = len(check.Updates) > 0
	return check, nil
}

func (m *Manager) checkGroup(entries map[string]lockfile.Entry, typ string, check *Check) {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := entries[name]
		rc, err := m.resolver.Resolve(name, typ, registry.ResolveOptions{RemoteOnly: true})
		if err != nil {
			m.logger.Debug("no remote version", "name", name, "type", typ, "error", err)
			continue
		}
		if rc.Version == "" || rc.Version == entry.Version {
			continue
		}

		newer, err := version.IsNewer(entry.Version, rc.Version)
		if err != nil || !newer {
			continue
		}
		breaking, err := version.IsBreaking(entry.Version, rc.Version)
		if err != nil {
			continue
		}

		info := Info{Name: name, Type: typ, Current: entry.Version, Latest: rc.Version, IsBreaking: breaking}
		check.Updates = append(check.Updates, info)
		if breaking {
			check.BreakingChanges = append(check.BreakingChanges, info)
		}
	}
}

// Update applies available updates to the lockfile and the tracking
// records. Breaking updates are moved to Skipped unless AllowBreaking;
// per-package failures land in Failed without aborting the rest. The
// lockfile is saved once, and only when at least one package updated.
func (m *Manager) Update(opts Options) (*Result, error) {
	check, err := m.CheckUpdates()
	if err != nil {
		return nil, err
	}

	result := &Result{DryRun: opts.DryRun}
	candidates := filterPackages(check.Updates, opts.Packages)

	var apply []Info
	for _, info := range candidates {
		if info.IsBreaking && !opts.AllowBreaking {
			result.Skipped = append(result.Skipped, Skipped{Name: info.Name, Reason: "breaking"})
			continue
		}
		apply = append(apply, info)
	}

	if opts.DryRun {
		result.Updated = apply
		return result, nil
	}

	lf, err := m.locks.Load()
	if err != nil {
		return nil, err
	}

	for _, info := range apply {
		if err := m.applyOne(lf, info); err != nil {
			result.Failed = append(result.Failed, Failed{Name: info.Name, Error: err.Error()})
			continue
		}
		result.Updated = append(result.Updated, info)
	}

	if len(result.Updated) > 0 {
		if err := m.locks.Save(lf); err != nil {
			return nil, err
		}
	}

	m.logger.Info("update run complete",
		"updated", len(result.Updated), "failed", len(result.Failed), "skipped", len(result.Skipped))
	return result, nil
}

// applyOne re-resolves one definition at its latest version and mutates
// the in-memory lockfile entry and its tracking record.
func (m *Manager) applyOne(lf *lockfile.Lockfile, info Info) error {
	data, rc, err := m.resolveRemoteBytes(info.Name, info.Type, info.Latest)
	if err != nil {
		return err
	}

	lf.SetEntry(info.Type, info.Name, lockfile.Entry{
		Version:      info.Latest,
		Resolved:     rc.Source,
		Integrity:    manifest.ComputeChecksum(data),
		Dependencies: entryDependencies(lf, info),
	})

	return m.trackVersion(info.Name, info.Type, info.Latest, false)
}

// entryDependencies carries the existing dependency map forward; the
// updated definition's own dependency list is re-locked on the next
// generate.
func entryDependencies(lf *lockfile.Lockfile, info Info) *lockfile.Dependencies {
	if current, ok := lf.Entry(info.Type, info.Name); ok {
		return current.Dependencies
	}
	return nil
}

// Rollback pins name back to a previously installed version. The
// version must appear in the tracking record's installed_versions; the
// lockfile entry and the record are rewritten and saved immediately.
func (m *Manager) Rollback(name, ver string) error {
	store := installer.NewTrackingStore(m.ws.PackageManifestDir(workspace.ScopeLocal))
	record, err := store.Load(name)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("no package manifest for %s", name)
	}
	if !record.HasVersion(ver) {
		return &errdefs.VersionError{Name: name, Version: ver, Available: record.InstalledVersions}
	}

	lf, err := m.locks.Load()
	if err != nil {
		return err
	}

	data, rc, err := m.resolveRemoteBytes(name, record.Type, ver)
	if err != nil {
		return fmt.Errorf("re-resolving %s@%s: %w", name, ver, err)
	}

	entry, _ := lf.Entry(record.Type, name)
	entry.Version = ver
	entry.Resolved = rc.Source
	entry.Integrity = manifest.ComputeChecksum(data)
	lf.SetEntry(record.Type, name, entry)

	if err := m.locks.Save(lf); err != nil {
		return err
	}
	if err := m.trackVersion(name, record.Type, ver, true); err != nil {
		return err
	}

	m.logger.Info("rolled back", "name", name, "version", ver)
	return nil
}

// resolveRemoteBytes resolves name at an exact version against the
// registries and fetches the definition payload.
func (m *Manager) resolveRemoteBytes(name, typ, exactVersion string) ([]byte, *registry.ResolvedComponent, error) {
	rc, err := m.resolver.Resolve(name, typ, registry.ResolveOptions{Version: exactVersion, RemoteOnly: true})
	if err != nil {
		return nil, nil, err
	}

	if rc.Path != "" {
		data, err := os.ReadFile(rc.Path)
		if err != nil {
			return nil, nil, err
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

// trackVersion updates the component's tracking record. Records are
// created on first update so rollback targets are known afterwards.
func (m *Manager) trackVersion(name, typ, ver string, rollback bool) error {
	store := installer.NewTrackingStore(m.ws.PackageManifestDir(workspace.ScopeLocal))
	record, err := store.Load(name)
	if err != nil {
		return err
	}
	if record == nil {
		record = &installer.PackageManifest{Name: name, Type: typ}
	}
	record.AddVersion(ver)
	record.ActiveVersion = ver
	if !rollback {
		record.Latest = ver
	}
	record.UpdateAvailable = false
	return store.Save(record)
}

func filterPackages(updates []Info, packages []string) []Info {
	if len(packages) == 0 {
		return updates
	}
	wanted := make(map[string]bool, len(packages))
	for _, p := range packages {
		wanted[p] = true
	}
	var out []Info
	for _, u := range updates {
		if wanted[u.Name] {
			out = append(out, u)
		}
	}
	return out
}
