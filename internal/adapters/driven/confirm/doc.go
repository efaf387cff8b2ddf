// Package confirm provides driven.ConfirmationGate implementations for the
// command line: an interactive terminal prompt and a fixed answer used by
// --yes and non-interactive callers.
package confirm
