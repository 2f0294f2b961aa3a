package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Scope identifies an installation target.
type Scope string

const (
	ScopeLocal  Scope = "local"
	ScopeGlobal Scope = "global"
)

// Directory name constants for the .fractary on-disk convention.
const (
	LocalDirName  = ".fractary"
	GlobalSubdir  = "registry"
	LockfileDir   = "plugins/forge"
	LockfileName  = "lockfile.json"
	PackagesDir   = "plugins/forge/packages"
	ConfigName    = "config.json"
	EnvGlobalRoot = "FORGE_GLOBAL_ROOT"
)

// Categories are the component category directories under an install root.
var Categories = []string{
	"agents",
	"tools",
	"workflows",
	"templates",
	"hooks",
	"commands",
}

// Workspace resolves all on-disk paths for one project plus the
// user-global install tree. Construct one per project; there is no
// package-level default.
type Workspace struct {
	ProjectDir string // absolute path to the project root
	GlobalRoot string // absolute path to the global install root
}

// New creates a Workspace rooted at projectDir. The global root honors
// the FORGE_GLOBAL_ROOT environment variable and falls back to
// ~/.fractary/registry.
func New(projectDir string) (*Workspace, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolving project dir %s: %w", projectDir, err)
	}

	global := os.Getenv(EnvGlobalRoot)
	if global == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		global = filepath.Join(home, LocalDirName, GlobalSubdir)
	}

	return &Workspace{ProjectDir: abs, GlobalRoot: global}, nil
}

// LocalRoot returns the project-local install root (<project>/.fractary).
func (w *Workspace) LocalRoot() string {
	return filepath.Join(w.ProjectDir, LocalDirName)
}

// Root returns the install root for the given scope.
func (w *Workspace) Root(scope Scope) string {
	if scope == ScopeGlobal {
		return w.GlobalRoot
	}
	return w.LocalRoot()
}

// CategoryDir returns the directory for a component category under the
// given scope (e.g. <root>/tools).
func (w *Workspace) CategoryDir(scope Scope, category string) string {
	return filepath.Join(w.Root(scope), category)
}

// PluginDir returns the directory holding one plugin's items within a
// category (e.g. <root>/tools/<plugin>).
func (w *Workspace) PluginDir(scope Scope, category, plugin string) string {
	return filepath.Join(w.Root(scope), category, plugin)
}

// LockfilePath returns <project>/.fractary/plugins/forge/lockfile.json.
func (w *Workspace) LockfilePath() string {
	return filepath.Join(w.LocalRoot(), filepath.FromSlash(LockfileDir), LockfileName)
}

// PackageManifestDir returns the directory holding per-package install
// tracking records for the given scope.
func (w *Workspace) PackageManifestDir(scope Scope) string {
	return filepath.Join(w.Root(scope), filepath.FromSlash(PackagesDir))
}

// ProjectConfigPath returns <project>/.fractary/config.json.
func (w *Workspace) ProjectConfigPath() string {
	return filepath.Join(w.LocalRoot(), ConfigName)
}

// GlobalConfigPath returns ~/.fractary/config.json. The empty string is
// returned when the home directory cannot be resolved.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, LocalDirName, ConfigName)
}

// EnsureLayout creates the category tree under the given scope root.
func (w *Workspace) EnsureLayout(scope Scope) error {
	for _, cat := range Categories {
		dir := w.CategoryDir(scope, cat)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// IsValidCategory reports whether name is a known component category.
func IsValidCategory(name string) bool {
	for _, cat := range Categories {
		if cat == name {
			return true
		}
	}
	return false
}
