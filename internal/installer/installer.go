package installer

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/fractary/forge/internal/config"
	"github.com/fractary/forge/internal/errdefs"
	"github.com/fractary/forge/internal/manifest"
	"github.com/fractary/forge/internal/registry"
	"github.com/fractary/forge/internal/workspace"
)

// Installer materializes a plugin's components on disk with checksum
// verification. Item writes are per-file, not transactional across the
// plugin; re-running install with Force is the recovery path after a
// crash mid-install.
type Installer struct {
	ws       *workspace.Workspace
	cfg      *config.Config
	resolver *registry.Resolver
	fetcher  *manifest.Fetcher
	logger   *slog.Logger
}

// InstallOptions control scope and category selection for one install.
type InstallOptions struct {
	Scope      workspace.Scope
	Force      bool
	DryRun     bool
	AgentsOnly bool
	ToolsOnly  bool
	NoHooks    bool
	NoCommands bool
}

// PluginInfo identifies the installed plugin.
type PluginInfo struct {
	Name    string
	Version string
}

// InstallResult reports what an install did.
type InstallResult struct {
	Plugin      PluginInfo
	Installed   map[string]int // category -> item count
	InstallPath string
	Skipped     bool
	DryRun      bool
}

// UninstallResult reports the outcome of an uninstall.
type UninstallResult struct {
	Success bool
	Reason  string
}

// New creates an Installer. A nil logger falls back to slog.Default().
func New(ws *workspace.Workspace, cfg *config.Config, resolver *registry.Resolver, fetcher *manifest.Fetcher, logger *slog.Logger) *Installer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{ws: ws, cfg: cfg, resolver: resolver, fetcher: fetcher, logger: logger}
}

// verifiedItem pairs a plugin item with its verified payload and target
// path, so all writes happen only after every item has passed
// verification.
type verifiedItem struct {
	category string
	item     manifest.PluginItem
	data     []byte
	dest     string
}

// InstallPlugin resolves name to a plugin, fetches its manifest, and
// writes every selected component under the scope's install root after
// sha256 verification. Installing an already-installed plugin without
// Force is a no-op that performs no network calls.
func (i *Installer) InstallPlugin(name string, opts InstallOptions) (*InstallResult, error) {
	if opts.Scope == "" {
		opts.Scope = workspace.ScopeLocal
	}

	if i.resolver.PluginInstalled(opts.Scope, name) && !opts.Force {
		return &InstallResult{Plugin: PluginInfo{Name: name}, Skipped: true}, nil
	}

	rc, err := i.resolver.Resolve(name, registry.TypePlugin, registry.ResolveOptions{RemoteOnly: true})
	if err != nil {
		return nil, fmt.Errorf("plugin not found: %w", err)
	}

	reg := i.cfg.Registry(rc.Source)
	var token string
	ttl := time.Duration(config.DefaultCacheTTLSeconds) * time.Second
	if reg != nil {
		token = reg.AuthToken
		ttl = time.Duration(reg.CacheTTLSeconds) * time.Second
	}

	pm, err := i.fetcher.FetchPluginManifest(rc.Name, rc.URL, rc.Checksum, token, ttl)
	if err != nil {
		return nil, err
	}

	// Fetch and verify every selected item before any write, so a
	// checksum failure leaves nothing installed.
	var verified []verifiedItem
	for _, category := range selectCategories(opts) {
		for _, item := range pm.Category(category) {
			data, err := i.fetcher.FetchFile(item.Source, token)
			if err != nil {
				return nil, fmt.Errorf("fetching %s/%s: %w", category, item.Name, err)
			}
			actual, ok, err := manifest.ChecksumMatches(data, item.Checksum)
			if err != nil {
				return nil, fmt.Errorf("verifying %s/%s: %w", category, item.Name, err)
			}
			if !ok {
				return nil, &errdefs.ChecksumError{
					Name:     item.Name,
					URL:      item.Source,
					Expected: item.Checksum,
					Actual:   actual,
				}
			}
			verified = append(verified, verifiedItem{
				category: category,
				item:     item,
				data:     data,
				dest:     filepath.Join(i.ws.PluginDir(opts.Scope, category, pm.Name), item.Name+sourceExtension(item.Source)),
			})
		}
	}

	result := &InstallResult{
		Plugin:      PluginInfo{Name: pm.Name, Version: pm.Version},
		Installed:   make(map[string]int),
		InstallPath: i.ws.Root(opts.Scope),
		DryRun:      opts.DryRun,
	}

	if opts.DryRun {
		for _, v := range verified {
			result.Installed[v.category]++
		}
		return result, nil
	}

	for _, v := range verified {
		if err := os.MkdirAll(filepath.Dir(v.dest), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(v.dest), err)
		}
		if err := os.WriteFile(v.dest, v.data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", v.dest, err)
		}
		result.Installed[v.category]++
	}

	if err := i.track(pm, opts.Scope); err != nil {
		return nil, err
	}

	i.logger.Info("installed plugin",
		"plugin", pm.Name, "version", pm.Version, "scope", opts.Scope)
	return result, nil
}

// UninstallPlugin removes the plugin's directory trees under the scope
// root. Success is false with a reason when nothing was installed.
func (i *Installer) UninstallPlugin(name string, scope workspace.Scope) (*UninstallResult, error) {
	if scope == "" {
		scope = workspace.ScopeLocal
	}

	removed := false
	for _, cat := range workspace.Categories {
		dir := i.ws.PluginDir(scope, cat, name)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("removing %s: %w", dir, err)
		}
		removed = true
	}

	if !removed {
		return &UninstallResult{Success: false, Reason: fmt.Sprintf("plugin %s is not installed at scope %s", name, scope)}, nil
	}

	store := NewTrackingStore(i.ws.PackageManifestDir(scope))
	if err := store.Remove(name); err != nil {
		return nil, err
	}

	i.logger.Info("uninstalled plugin", "plugin", name, "scope", scope)
	return &UninstallResult{Success: true}, nil
}

// track records the installed plugin version in the scope's tracking
// store.
func (i *Installer) track(pm *manifest.PluginManifest, scope workspace.Scope) error {
	store := NewTrackingStore(i.ws.PackageManifestDir(scope))

	record, err := store.Load(pm.Name)
	if err != nil {
		return err
	}
	if record == nil {
		record = &PackageManifest{Name: pm.Name, Type: registry.TypePlugin}
	}
	record.AddVersion(pm.Version)
	record.ActiveVersion = pm.Version
	record.Latest = pm.Version
	record.UpdateAvailable = false
	record.LastChecked = time.Now()

	return store.Save(record)
}

// selectCategories applies the install filters. AgentsOnly and
// ToolsOnly narrow to a single category; NoHooks and NoCommands exclude
// theirs; the default is every category present.
func selectCategories(opts InstallOptions) []string {
	if opts.AgentsOnly {
		return []string{manifest.CategoryAgents}
	}
	if opts.ToolsOnly {
		return []string{manifest.CategoryTools}
	}

	var out []string
	for _, cat := range manifest.Categories {
		if opts.NoHooks && cat == manifest.CategoryHooks {
			continue
		}
		if opts.NoCommands && cat == manifest.CategoryCommands {
			continue
		}
		out = append(out, cat)
	}
	return out
}

// sourceExtension extracts the file extension from an item's source
// URL, defaulting to .yaml.
func sourceExtension(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return ".yaml"
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return ".yaml"
}
