package errdefs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for errors.Is checks. Each typed error below unwraps to
// exactly one of these.
var (
	ErrNotFound                   = errors.New("not found")
	ErrChecksumMismatch           = errors.New("checksum mismatch")
	ErrCircularDependency         = errors.New("circular dependency")
	ErrLockfileNotFound           = errors.New("lockfile not found")
	ErrLockfileParse              = errors.New("lockfile parse error")
	ErrLockfileVersionUnsupported = errors.New("unsupported lockfile version")
	ErrIntegrityMismatch          = errors.New("integrity mismatch")
	ErrVersionNotFound            = errors.New("version not found")
	ErrRegistryUnreachable        = errors.New("registry unreachable")
	ErrInvalidManifest            = errors.New("invalid manifest")
)

// NotFoundError reports that a component, plugin, or version could not be
// resolved after exhausting every tier and registry.
type NotFoundError struct {
	Name string
	Type string
}

func (e *NotFoundError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s %q not found", e.Type, e.Name)
	}
	return fmt.Sprintf("%q not found", e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ChecksumError reports that fetched bytes failed sha256 verification.
// Always fatal for the operation that triggered the fetch.
type ChecksumError struct {
	Name     string
	URL      string
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.Name, e.Expected, e.Actual)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// CycleError reports a dependency cycle. Path holds the full walk up to
// and including the repeated name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCircularDependency }

// IntegrityError reports validate-time hash drift from a locked entry.
type IntegrityError struct {
	Name     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity mismatch for %s: locked %s, resolved %s", e.Name, e.Expected, e.Actual)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrityMismatch }

// VersionError reports a rollback target that is not among the installed
// versions of a package.
type VersionError struct {
	Name      string
	Version   string
	Available []string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("version %s of %s is not installed (have: %s)", e.Version, e.Name, strings.Join(e.Available, ", "))
}

func (e *VersionError) Unwrap() error { return ErrVersionNotFound }

// RegistryError reports a network or parse failure against one registry.
// The resolver logs these and continues with the remaining registries.
type RegistryError struct {
	Registry string
	URL      string
	Err      error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry %s unreachable: %v", e.Registry, e.Err)
}

func (e *RegistryError) Unwrap() error { return ErrRegistryUnreachable }

// ManifestError reports a schema validation failure on a fetched document.
// Terminal for that registry within a resolution attempt.
type ManifestError struct {
	Source string
	Issues []string
}

func (e *ManifestError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("invalid manifest from %s", e.Source)
	}
	return fmt.Sprintf("invalid manifest from %s: %s", e.Source, strings.Join(e.Issues, "; "))
}

func (e *ManifestError) Unwrap() error { return ErrInvalidManifest }
