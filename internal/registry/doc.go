// Package registry implements the three-tier component resolver:
// project-local files, the user-global install tree, then remote
// manifest registries in ascending priority order, first hit wins.
package registry
