package registry

import (
	"strings"

	"github.com/fractary/forge/internal/config"
	"github.com/fractary/forge/internal/manifest"
)

// SearchResult is one plugin reference matched by a registry search.
type SearchResult struct {
	Name        string
	Version     string
	Description string
	Tags        []string
	Registry    string
	ManifestURL string
}

// Search scans all reachable registries for plugins whose name or
// description contains query (case-insensitive), optionally filtered by
// an exact tag. A registry fetch failure is logged and skipped, never
// propagated; results aggregate across every reachable registry.
func (r *Resolver) Search(query, typ string, opts SearchOptions) ([]SearchResult, error) {
	needle := strings.ToLower(query)

	var out []SearchResult
	for _, reg := range r.registries(opts.Registry) {
		m, err := r.fetcher.FetchRegistryManifest(reg)
		if err != nil {
			r.logger.Warn("registry unreachable during search, skipping",
				"registry", reg.Name, "error", err)
			continue
		}

		for i := range m.Plugins {
			ref := &m.Plugins[i]
			if !matchesQuery(ref.Name, ref.Description, needle) {
				continue
			}
			if opts.Tag != "" && !hasTag(ref.Tags, opts.Tag) {
				continue
			}
			if typ != "" && !r.pluginHasCategory(reg, ref, categoryForType(typ)) {
				continue
			}
			out = append(out, SearchResult{
				Name:        ref.Name,
				Version:     ref.Version,
				Description: ref.Description,
				Tags:        ref.Tags,
				Registry:    reg.Name,
				ManifestURL: ref.ManifestURL,
			})
		}
	}
	return out, nil
}

// pluginHasCategory fetches the plugin manifest and checks for at least
// one item in the given category. Fetch failures exclude the plugin
// from results rather than failing the search.
func (r *Resolver) pluginHasCategory(reg config.RegistryConfig, ref *manifest.PluginReference, category string) bool {
	if category == "" {
		return false
	}
	pm, err := r.fetchPluginManifest(reg, ref)
	if err != nil {
		r.logger.Warn("plugin manifest fetch failed during search, skipping",
			"registry", reg.Name, "plugin", ref.Name, "error", err)
		return false
	}
	return len(pm.Category(category)) > 0
}

func matchesQuery(name, description, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), needle) ||
		strings.Contains(strings.ToLower(description), needle)
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
