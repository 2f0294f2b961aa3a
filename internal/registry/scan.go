package registry

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fractary/forge/internal/definition"
	"github.com/fractary/forge/internal/workspace"
)

// itemExtensions is the lookup order for definition files on disk.
var itemExtensions = []string{".yaml", ".yml", ".json", ".md"}

// scanScope checks one install root for name/typ. Returns nil when not
// present; scanning never touches the network.
func (r *Resolver) scanScope(scope workspace.Scope, name, typ string) *ResolvedComponent {
	source := SourceLocal
	isProject := true
	if scope == workspace.ScopeGlobal {
		source = SourceGlobal
		isProject = false
	}

	if typ == TypePlugin {
		if !r.PluginInstalled(scope, name) {
			return nil
		}
		return &ResolvedComponent{
			Name:      name,
			Type:      TypePlugin,
			Source:    source,
			Path:      r.ws.Root(scope),
			IsProject: isProject,
		}
	}

	category := categoryForType(typ)
	if category == "" {
		return nil
	}

	var path, plugin string
	if pluginName, component, ok := ParsePluginRef(name); ok {
		path = findItemFile(r.ws.PluginDir(scope, category, pluginName), component)
		plugin = pluginName
		name = component
	} else {
		path, plugin = findItemInCategory(r.ws.CategoryDir(scope, category), name)
	}
	if path == "" {
		return nil
	}

	rc := &ResolvedComponent{
		Name:      name,
		Type:      typ,
		Source:    source,
		Path:      path,
		Plugin:    plugin,
		IsProject: isProject,
	}
	if def, err := definition.Load(path); err == nil {
		rc.Version = def.Version
	}
	return rc
}

// PluginInstalled reports whether any category under the scope root
// contains a directory for the plugin.
func (r *Resolver) PluginInstalled(scope workspace.Scope, plugin string) bool {
	for _, cat := range workspace.Categories {
		dir := r.ws.PluginDir(scope, cat, plugin)
		entries, err := os.ReadDir(dir)
		if err == nil && len(entries) > 0 {
			return true
		}
	}
	return false
}

// ListInstalled enumerates installed components. typ filters to one
// component type when non-empty; scope is "local", "global", or "all".
func (r *Resolver) ListInstalled(typ, scope string) ([]Component, error) {
	var scopes []workspace.Scope
	switch scope {
	case "", "all":
		scopes = []workspace.Scope{workspace.ScopeLocal, workspace.ScopeGlobal}
	case SourceLocal:
		scopes = []workspace.Scope{workspace.ScopeLocal}
	case SourceGlobal:
		scopes = []workspace.Scope{workspace.ScopeGlobal}
	}

	var out []Component
	for _, sc := range scopes {
		for _, cat := range workspace.Categories {
			if typ != "" && typeForCategory(cat) != typ {
				continue
			}
			out = append(out, scanCategory(r.ws.CategoryDir(sc, cat), typeForCategory(cat), string(sc))...)
		}
	}
	return out, nil
}

// scanCategory walks one category directory and returns every
// definition file found, attributed to its plugin subdirectory.
func scanCategory(dir, typ, scope string) []Component {
	var out []Component
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !hasItemExtension(d.Name()) {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}

		comp := Component{
			Name:   trimItemExtension(d.Name()),
			Type:   typ,
			Plugin: filepath.ToSlash(filepath.Dir(rel)),
			Scope:  scope,
			Path:   path,
		}
		if comp.Plugin == "." {
			comp.Plugin = ""
		}
		if def, err := definition.Load(path); err == nil {
			comp.Version = def.Version
		}
		out = append(out, comp)
		return nil
	})
	return out
}

// findItemInCategory searches a category tree for <name>.<ext> at any
// plugin depth and returns the file path and owning plugin directory.
func findItemInCategory(categoryDir, name string) (path, plugin string) {
	filepath.WalkDir(categoryDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path != "" {
			return nil
		}
		if trimItemExtension(d.Name()) != name || !hasItemExtension(d.Name()) {
			return nil
		}
		rel, relErr := filepath.Rel(categoryDir, p)
		if relErr != nil {
			return nil
		}
		path = p
		plugin = filepath.ToSlash(filepath.Dir(rel))
		if plugin == "." {
			plugin = ""
		}
		return fs.SkipAll
	})
	return path, plugin
}

// findItemFile looks for <name>.<ext> directly inside dir.
func findItemFile(dir, name string) string {
	for _, ext := range itemExtensions {
		p := filepath.Join(dir, name+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func hasItemExtension(filename string) bool {
	ext := filepath.Ext(filename)
	for _, e := range itemExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func trimItemExtension(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
