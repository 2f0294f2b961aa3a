// Package cli defines the forge command tree. Commands are thin
// wrappers that wire the component stack, invoke one operation, and
// format its result; resolution and locking logic lives in the
// internal packages underneath.
package cli
