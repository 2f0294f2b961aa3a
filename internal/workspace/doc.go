// Package workspace resolves the on-disk layout used by the registry
// core: the project-local .fractary tree, the user-global
// ~/.fractary/registry tree, the lockfile, and config file locations.
package workspace
