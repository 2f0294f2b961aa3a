// Package lockfile snapshots the exact versions and content hashes of
// every agent and tool definition a project uses, and verifies that the
// snapshot still matches what resolution produces today.
package lockfile
