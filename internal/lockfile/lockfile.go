package lockfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CurrentVersion is the lockfile schema version this build reads and
// writes.
const CurrentVersion = 1

// Lockfile is the project's exact-version, integrity-hashed record of
// every agent and tool definition it uses.
type Lockfile struct {
	Version   int              `json:"version"`
	Generated time.Time        `json:"generated"`
	Agents    map[string]Entry `json:"agents"`
	Tools     map[string]Entry `json:"tools"`
}

// Entry pins one definition to a version, source, and content hash.
type Entry struct {
	Version      string        `json:"version"`
	Resolved     string        `json:"resolved"` // "local", "global", or a registry name
	Integrity    string        `json:"integrity"`
	Dependencies *Dependencies `json:"dependencies,omitempty"`
}

// Dependencies records the versions of an entry's direct dependencies
// at lock time.
type Dependencies struct {
	Agents map[string]string `json:"agents,omitempty"`
	Tools  map[string]string `json:"tools,omitempty"`
}

// New returns an empty lockfile at the current schema version.
func New() *Lockfile {
	return &Lockfile{
		Version:   CurrentVersion,
		Generated: time.Now().UTC(),
		Agents:    make(map[string]Entry),
		Tools:     make(map[string]Entry),
	}
}

// HasTool reports whether name is already locked as a tool.
func (l *Lockfile) HasTool(name string) bool {
	_, ok := l.Tools[name]
	return ok
}

// Entry looks up a locked entry by type group ("agent" or "tool").
func (l *Lockfile) Entry(typ, name string) (Entry, bool) {
	switch typ {
	case "agent":
		e, ok := l.Agents[name]
		return e, ok
	case "tool":
		e, ok := l.Tools[name]
		return e, ok
	}
	return Entry{}, false
}

// SetEntry stores a locked entry under its type group.
func (l *Lockfile) SetEntry(typ, name string, e Entry) {
	switch typ {
	case "agent":
		l.Agents[name] = e
	case "tool":
		l.Tools[name] = e
	}
}

// write persists l as pretty-printed JSON at path, atomically via a
// temp file rename in the same directory.
func write(l *Lockfile, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating lockfile directory: %w", err)
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling lockfile: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".lockfile-*.json")
	if err != nil {
		return fmt.Errorf("creating temp lockfile: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp lockfile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp lockfile: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing lockfile: %w", err)
	}
	return nil
}
