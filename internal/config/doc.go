// Package config loads the registry configuration set from the project
// and global .fractary config files, project entries taking precedence
// per registry name.
package config
