// Package errdefs defines the typed errors shared across the registry
// core. Callers classify failures with errors.Is against the sentinel
// kinds and recover structured context with errors.As.
package errdefs
