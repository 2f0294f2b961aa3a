package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/viper"
)

// RegistryKindManifest is the only registry kind the core implements.
const RegistryKindManifest = "manifest"

// DefaultCacheTTLSeconds applies when a registry omits cache_ttl_seconds.
const DefaultCacheTTLSeconds = 3600

// RegistryConfig describes one configured manifest registry. The core
// treats these as read-only; they are created and edited via config files.
type RegistryConfig struct {
	Name            string `json:"name" mapstructure:"name"`
	Kind            string `json:"kind" mapstructure:"kind"`
	URL             string `json:"url" mapstructure:"url"`
	Enabled         bool   `json:"enabled" mapstructure:"enabled"`
	Priority        int    `json:"priority" mapstructure:"priority"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds" mapstructure:"cache_ttl_seconds"`
	AuthToken       string `json:"auth_token,omitempty" mapstructure:"auth_token"`
}

// Config is the merged registry configuration for one project.
type Config struct {
	Registries []RegistryConfig
}

// Load reads the global config file and merges the project config over
// it. A project registry replaces a global registry with the same name;
// project-only registries are appended. Missing files are not errors.
func Load(projectPath, globalPath string) (*Config, error) {
	global, err := readFile(globalPath)
	if err != nil {
		return nil, err
	}
	project, err := readFile(projectPath)
	if err != nil {
		return nil, err
	}

	merged := make([]RegistryConfig, 0, len(global)+len(project))
	byName := make(map[string]int)

	for _, reg := range global {
		byName[reg.Name] = len(merged)
		merged = append(merged, reg)
	}
	for _, reg := range project {
		if i, ok := byName[reg.Name]; ok {
			merged[i] = reg
			continue
		}
		byName[reg.Name] = len(merged)
		merged = append(merged, reg)
	}

	for i := range merged {
		if merged[i].CacheTTLSeconds <= 0 {
			merged[i].CacheTTLSeconds = DefaultCacheTTLSeconds
		}
		if merged[i].Kind == "" {
			merged[i].Kind = RegistryKindManifest
		}
	}

	return &Config{Registries: merged}, nil
}

// readFile loads the registries list from one JSON config file via viper.
// Returns nil when the file does not exist.
func readFile(path string) ([]RegistryConfig, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var registries []RegistryConfig
	if err := v.UnmarshalKey("registries", &registries); err != nil {
		return nil, fmt.Errorf("parsing registries in %s: %w", path, err)
	}

	seen := make(map[string]bool)
	for _, reg := range registries {
		if reg.Name == "" {
			return nil, fmt.Errorf("config %s: registry with empty name", path)
		}
		if seen[reg.Name] {
			return nil, fmt.Errorf("config %s: duplicate registry name %q", path, reg.Name)
		}
		seen[reg.Name] = true
	}

	return registries, nil
}

// Enabled returns the enabled manifest registries sorted by ascending
// priority. Ties keep config order (global entries first, then project
// additions), so the sort must be stable.
func (c *Config) Enabled() []RegistryConfig {
	var out []RegistryConfig
	for _, reg := range c.Registries {
		if reg.Enabled && reg.Kind == RegistryKindManifest {
			out = append(out, reg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Registry returns the registry with the given name, or nil.
func (c *Config) Registry(name string) *RegistryConfig {
	for i := range c.Registries {
		if c.Registries[i].Name == name {
			return &c.Registries[i]
		}
	}
	return nil
}
