// Package installer materializes plugin components under the local or
// global install root, verifying every payload's sha256 before any
// write, and keeps per-package install tracking records.
package installer
