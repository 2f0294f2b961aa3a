// Package depgraph executes a tool's declared dependency graph
// depth-first with per-call cycle detection, delegating the actual tool
// invocation to an external Executor.
package depgraph
