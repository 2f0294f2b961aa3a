package registry

// Component types accepted by the resolver. TypePlugin resolves a whole
// plugin bundle; the others resolve individual definitions.
const (
	TypeAgent    = "agent"
	TypeTool     = "tool"
	TypeWorkflow = "workflow"
	TypeTemplate = "template"
	TypeHook     = "hook"
	TypeCommand  = "command"
	TypePlugin   = "plugin"
)

// Source values for components resolved from the install trees.
const (
	SourceLocal  = "local"
	SourceGlobal = "global"
)

// ResolvedComponent is the resolver's answer for one name/type pair.
// Exactly one of Path/URL is set: Path for local and global hits, URL
// for registry hits. Transient per resolution call.
type ResolvedComponent struct {
	Name      string
	Type      string
	Source    string // "local", "global", or the registry name
	Path      string
	URL       string
	Version   string
	Plugin    string // owning plugin, when known
	Checksum  string // expected sha256 for registry hits
	IsProject bool   // true for project-local hits
}

// ResolveOptions narrow a resolution attempt.
type ResolveOptions struct {
	Version    string // semver constraint; empty means any
	Registry   string // restrict to one named registry
	RemoteOnly bool   // skip the local and global tiers
}

// SearchOptions narrow a registry search.
type SearchOptions struct {
	Registry string // restrict to one named registry
	Tag      string // exact tag filter
}

// Component describes one installed definition found by a local or
// global scan.
type Component struct {
	Name    string
	Type    string
	Plugin  string
	Scope   string // "local" or "global"
	Path    string
	Version string
}

// categoryForType maps a singular component type to its category
// directory name.
func categoryForType(typ string) string {
	switch typ {
	case TypeAgent:
		return "agents"
	case TypeTool:
		return "tools"
	case TypeWorkflow:
		return "workflows"
	case TypeTemplate:
		return "templates"
	case TypeHook:
		return "hooks"
	case TypeCommand:
		return "commands"
	}
	return ""
}

// typeForCategory is the inverse of categoryForType.
func typeForCategory(category string) string {
	switch category {
	case "agents":
		return TypeAgent
	case "tools":
		return TypeTool
	case "workflows":
		return TypeWorkflow
	case "templates":
		return TypeTemplate
	case "hooks":
		return TypeHook
	case "commands":
		return TypeCommand
	}
	return ""
}
