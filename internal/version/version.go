package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Compare compares two version strings using semver.
// Returns -1 if a < b, 0 if equal, 1 if a > b.
// Tolerates a leading "v" on either argument.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", a, err)
	}
	bv, err := parse(b)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", b, err)
	}
	return av.Compare(bv), nil
}

// IsNewer returns true if candidate is strictly newer than current.
func IsNewer(current, candidate string) (bool, error) {
	cmp, err := Compare(current, candidate)
	if err != nil {
		return false, err
	}
	return cmp == -1, nil
}

// IsBreaking returns true if moving from current to candidate increases
// the major version. Pre-1.0 minor bumps are deliberately not treated as
// breaking; only a major increase counts.
func IsBreaking(current, candidate string) (bool, error) {
	cv, err := parse(current)
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", current, err)
	}
	nv, err := parse(candidate)
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", candidate, err)
	}
	return nv.Major() > cv.Major(), nil
}

// Satisfies reports whether version satisfies the given constraint
// expression (e.g. "^1.2.0", ">=2.0.0 <3.0.0", or an exact "1.2.3").
func Satisfies(ver, constraint string) (bool, error) {
	v, err := parse(ver)
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", ver, err)
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}
	return c.Check(v), nil
}

// parse strips a leading "v" and parses the version string.
func parse(ver string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(ver, "v"))
}
