package manifest

// RegistryManifest is the root document served at a registry's URL.
// Immutable once fetched; re-fetched on cache expiry.
type RegistryManifest struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Updated string            `json:"updated,omitempty"`
	Plugins []PluginReference `json:"plugins"`
}

// PluginReference is one entry in a registry manifest's plugin list.
type PluginReference struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	ManifestURL string   `json:"manifest_url"`
	Repository  string   `json:"repository,omitempty"`
	License     string   `json:"license,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Checksum    string   `json:"checksum"`
}

// PluginManifest is the per-plugin document describing the plugin's
// component items grouped by category.
type PluginManifest struct {
	Name      string         `json:"name"`
	Version   string         `json:"version"`
	Agents    []PluginItem   `json:"agents,omitempty"`
	Tools     []PluginItem   `json:"tools,omitempty"`
	Workflows []PluginItem   `json:"workflows,omitempty"`
	Templates []PluginItem   `json:"templates,omitempty"`
	Hooks     []PluginItem   `json:"hooks,omitempty"`
	Commands  []PluginItem   `json:"commands,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
}

// PluginItem is one installable component within a plugin.
type PluginItem struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description,omitempty"`
	Source       string   `json:"source"`
	Checksum     string   `json:"checksum"`
	Size         int64    `json:"size,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Component category names used throughout the install tree.
const (
	CategoryAgents    = "agents"
	CategoryTools     = "tools"
	CategoryWorkflows = "workflows"
	CategoryTemplates = "templates"
	CategoryHooks     = "hooks"
	CategoryCommands  = "commands"
)

// Categories lists all component categories in install order.
var Categories = []string{
	CategoryAgents,
	CategoryTools,
	CategoryWorkflows,
	CategoryTemplates,
	CategoryHooks,
	CategoryCommands,
}

// FindPlugin returns the plugin reference with the given name, or nil.
func (m *RegistryManifest) FindPlugin(name string) *PluginReference {
	for i := range m.Plugins {
		if m.Plugins[i].Name == name {
			return &m.Plugins[i]
		}
	}
	return nil
}

// Category returns the item list for the named category. Unknown
// categories return nil.
func (m *PluginManifest) Category(name string) []PluginItem {
	switch name {
	case CategoryAgents:
		return m.Agents
	case CategoryTools:
		return m.Tools
	case CategoryWorkflows:
		return m.Workflows
	case CategoryTemplates:
		return m.Templates
	case CategoryHooks:
		return m.Hooks
	case CategoryCommands:
		return m.Commands
	}
	return nil
}

// FindItem locates an item by exact name within the named category.
func (m *PluginManifest) FindItem(category, name string) *PluginItem {
	items := m.Category(category)
	for i := range items {
		if items[i].Name == name {
			return &items[i]
		}
	}
	return nil
}
