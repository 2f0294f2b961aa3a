package registry

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fractary/forge/internal/config"
	"github.com/fractary/forge/internal/errdefs"
	"github.com/fractary/forge/internal/manifest"
	"github.com/fractary/forge/internal/version"
	"github.com/fractary/forge/internal/workspace"
)

// Resolver answers "given a name and type, what is the best concrete
// artifact?" across three tiers: project-local files, the user-global
// install tree, then remote manifest registries in priority order.
type Resolver struct {
	ws      *workspace.Workspace
	cfg     *config.Config
	fetcher *manifest.Fetcher
	logger  *slog.Logger
}

// New creates a Resolver. A nil logger falls back to slog.Default().
func New(ws *workspace.Workspace, cfg *config.Config, fetcher *manifest.Fetcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{ws: ws, cfg: cfg, fetcher: fetcher, logger: logger}
}

// Resolve finds the best concrete artifact for name/typ. Tier order is
// local, global, then enabled registries by ascending priority; the
// first hit wins. A registry that fails to fetch or parse is logged and
// skipped — resolution only fails after every tier and registry has
// been exhausted.
func (r *Resolver) Resolve(name, typ string, opts ResolveOptions) (*ResolvedComponent, error) {
	if !opts.RemoteOnly {
		if rc := r.scanScope(workspace.ScopeLocal, name, typ); rc != nil {
			return rc, nil
		}
		if rc := r.scanScope(workspace.ScopeGlobal, name, typ); rc != nil {
			return rc, nil
		}
	}

	for _, reg := range r.registries(opts.Registry) {
		rc, err := r.resolveInRegistry(reg, name, typ, opts.Version)
		if err != nil {
			r.logger.Warn("registry lookup failed, skipping",
				"registry", reg.Name, "name", name, "error", err)
			continue
		}
		if rc != nil {
			return rc, nil
		}
	}

	return nil, &errdefs.NotFoundError{Name: name, Type: typ}
}

// Exists reports whether name/typ resolves anywhere.
func (r *Resolver) Exists(name, typ string, opts ResolveOptions) bool {
	_, err := r.Resolve(name, typ, opts)
	return err == nil
}

// registries returns the enabled registries in resolution order,
// optionally restricted to a single named registry.
func (r *Resolver) registries(only string) []config.RegistryConfig {
	enabled := r.cfg.Enabled()
	if only == "" {
		return enabled
	}
	for _, reg := range enabled {
		if reg.Name == only {
			return []config.RegistryConfig{reg}
		}
	}
	return nil
}

// resolveInRegistry attempts one registry. A nil result with nil error
// means "not found here, try the next registry"; an error means the
// registry itself failed and should be skipped.
func (r *Resolver) resolveInRegistry(reg config.RegistryConfig, name, typ, constraint string) (*ResolvedComponent, error) {
	m, err := r.fetcher.FetchRegistryManifest(reg)
	if err != nil {
		return nil, &errdefs.RegistryError{Registry: reg.Name, URL: reg.URL, Err: err}
	}

	if typ == TypePlugin {
		return r.resolvePluginRef(reg, m, name, constraint)
	}

	if pluginName, component, ok := ParsePluginRef(name); ok {
		return r.resolveScopedComponent(reg, m, pluginName, component, typ, constraint)
	}

	return r.resolveBareComponent(reg, m, name, typ, constraint)
}

// resolvePluginRef looks up a whole plugin bundle by name.
func (r *Resolver) resolvePluginRef(reg config.RegistryConfig, m *manifest.RegistryManifest, name, constraint string) (*ResolvedComponent, error) {
	ref := m.FindPlugin(name)
	if ref == nil {
		return nil, nil
	}
	if !satisfies(ref.Version, constraint) {
		return nil, nil // constraint miss skips this registry
	}
	return &ResolvedComponent{
		Name:     ref.Name,
		Type:     TypePlugin,
		Source:   reg.Name,
		URL:      ref.ManifestURL,
		Version:  ref.Version,
		Checksum: ref.Checksum,
	}, nil
}

// resolveScopedComponent handles "@scope/plugin/component" references:
// look up the plugin, enforce the version constraint against the plugin
// reference, then locate the component by exact name in the matching
// category of the plugin manifest.
func (r *Resolver) resolveScopedComponent(reg config.RegistryConfig, m *manifest.RegistryManifest, pluginName, component, typ, constraint string) (*ResolvedComponent, error) {
	category := categoryForType(typ)
	if category == "" {
		return nil, fmt.Errorf("unknown component type %q", typ)
	}

	ref := m.FindPlugin(pluginName)
	if ref == nil {
		return nil, nil
	}
	if !satisfies(ref.Version, constraint) {
		return nil, nil
	}

	pm, err := r.fetchPluginManifest(reg, ref)
	if err != nil {
		return nil, err
	}

	item := pm.FindItem(category, component)
	if item == nil {
		return nil, nil
	}

	return &ResolvedComponent{
		Name:     item.Name,
		Type:     typ,
		Source:   reg.Name,
		URL:      item.Source,
		Version:  item.Version,
		Plugin:   pluginName,
		Checksum: item.Checksum,
	}, nil
}

// resolveBareComponent searches every plugin in the registry for a
// component with the exact name in the matching category. Per-plugin
// manifest failures are logged and skipped so one broken plugin cannot
// mask the rest of the registry.
func (r *Resolver) resolveBareComponent(reg config.RegistryConfig, m *manifest.RegistryManifest, name, typ, constraint string) (*ResolvedComponent, error) {
	category := categoryForType(typ)
	if category == "" {
		return nil, fmt.Errorf("unknown component type %q", typ)
	}

	for i := range m.Plugins {
		ref := &m.Plugins[i]
		pm, err := r.fetchPluginManifest(reg, ref)
		if err != nil {
			r.logger.Warn("plugin manifest fetch failed, skipping",
				"registry", reg.Name, "plugin", ref.Name, "error", err)
			continue
		}

		item := pm.FindItem(category, name)
		if item == nil {
			continue
		}
		if !satisfies(item.Version, constraint) {
			continue
		}

		return &ResolvedComponent{
			Name:     item.Name,
			Type:     typ,
			Source:   reg.Name,
			URL:      item.Source,
			Version:  item.Version,
			Plugin:   ref.Name,
			Checksum: item.Checksum,
		}, nil
	}

	return nil, nil
}

// fetchPluginManifest fetches a plugin manifest through the shared
// cache, carrying the registry's TTL and auth token.
func (r *Resolver) fetchPluginManifest(reg config.RegistryConfig, ref *manifest.PluginReference) (*manifest.PluginManifest, error) {
	ttl := time.Duration(reg.CacheTTLSeconds) * time.Second
	return r.fetcher.FetchPluginManifest(ref.Name, ref.ManifestURL, ref.Checksum, reg.AuthToken, ttl)
}

// ParsePluginRef splits a plugin-scoped component reference of the form
// "@scope/plugin/component". A two-segment "@scope/plugin" is a plugin
// name, not a component reference.
func ParsePluginRef(name string) (plugin, component string, ok bool) {
	if !strings.HasPrefix(name, "@") {
		return "", "", false
	}
	parts := strings.Split(name, "/")
	if len(parts) < 3 {
		return "", "", false
	}
	return parts[0] + "/" + parts[1], strings.Join(parts[2:], "/"), true
}

// satisfies checks ver against a constraint, treating an empty
// constraint as a match. Unparseable inputs count as a miss rather than
// an error so a malformed version in one registry never aborts
// resolution.
func satisfies(ver, constraint string) bool {
	if constraint == "" {
		return true
	}
	ok, err := version.Satisfies(ver, constraint)
	return err == nil && ok
}
