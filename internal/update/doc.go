// Package update detects newer registry versions for locked
// definitions, applies them with breaking-change gating, and rolls a
// definition back to a previously installed version.
package update
