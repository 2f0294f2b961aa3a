package installer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PackageManifest is the per-package install tracking record. The
// installer appends versions; the update manager moves the active
// version and the update flags.
type PackageManifest struct {
	Name              string    `json:"name"`
	Type              string    `json:"type"`
	InstalledVersions []string  `json:"installed_versions"`
	ActiveVersion     string    `json:"active_version,omitempty"`
	Latest            string    `json:"latest,omitempty"`
	UpdateAvailable   bool      `json:"update_available"`
	LastChecked       time.Time `json:"last_checked"`
}

// HasVersion reports whether v is among the installed versions.
func (m *PackageManifest) HasVersion(v string) bool {
	for _, have := range m.InstalledVersions {
		if have == v {
			return true
		}
	}
	return false
}

// AddVersion appends v if not already recorded.
func (m *PackageManifest) AddVersion(v string) {
	if !m.HasVersion(v) {
		m.InstalledVersions = append(m.InstalledVersions, v)
	}
}

// TrackingStore persists package manifests as one JSON file per
// installed name under a scope's packages directory.
type TrackingStore struct {
	dir string
}

// NewTrackingStore creates a store rooted at dir.
func NewTrackingStore(dir string) *TrackingStore {
	return &TrackingStore{dir: dir}
}

// Load reads the record for name. Returns (nil, nil) when no record
// exists.
func (s *TrackingStore) Load(name string) (*PackageManifest, error) {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading package manifest for %s: %w", name, err)
	}

	var m PackageManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing package manifest for %s: %w", name, err)
	}
	return &m, nil
}

// Save writes the record, creating the store directory if needed.
func (s *TrackingStore) Save(m *PackageManifest) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating package manifest directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling package manifest for %s: %w", m.Name, err)
	}
	if err := os.WriteFile(s.path(m.Name), data, 0o644); err != nil {
		return fmt.Errorf("writing package manifest for %s: %w", m.Name, err)
	}
	return nil
}

// List returns every record in the store.
func (s *TrackingStore) List() ([]*PackageManifest, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading package manifest directory: %w", err)
	}

	var out []*PackageManifest
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var m PackageManifest
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		out = append(out, &m)
	}
	return out, nil
}

// Remove deletes the record for name. Missing records are not an error.
func (s *TrackingStore) Remove(name string) error {
	err := os.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing package manifest for %s: %w", name, err)
	}
	return nil
}

// path maps a package name to its record file. Plugin names may contain
// slashes, which are flattened to keep one file per name.
func (s *TrackingStore) path(name string) string {
	safe := strings.ReplaceAll(name, "/", "__")
	return filepath.Join(s.dir, safe+".json")
}
