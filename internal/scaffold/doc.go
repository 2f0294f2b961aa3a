// Package scaffold generates skeleton YAML definitions for new agents,
// tools, and workflows from embedded templates.
package scaffold
