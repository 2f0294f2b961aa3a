package definition

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/fractary/forge/internal/manifest"
)

// Definition is a parsed agent or tool YAML artifact. Raw preserves the
// exact bytes as stored, which are the canonical form for integrity
// hashing.
type Definition struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description"`
	Tools       []string `yaml:"tools,omitempty"`      // agents: tools they use
	DependsOn   []string `yaml:"depends_on,omitempty"` // tools: tool dependencies

	Raw  []byte `yaml:"-"`
	Path string `yaml:"-"`
}

// Parse decodes a definition from raw YAML bytes.
func Parse(data []byte, path string) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing definition %s: %w", path, err)
	}
	def.Raw = data
	def.Path = path
	return &def, nil
}

// Load reads and parses a definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definition %s: %w", path, err)
	}
	return Parse(data, path)
}

// Integrity returns the sha256 content hash of the definition's
// canonical (raw) bytes, in "sha256:<hex>" form.
func (d *Definition) Integrity() string {
	return manifest.ComputeChecksum(d.Raw)
}
