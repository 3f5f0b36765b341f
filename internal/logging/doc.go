// Package logging assembles structured slog loggers and formatting helpers used
// across sieve.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so analysis and apply code can
// tag log lines with the analysis name and apply run ID. A no-op logger is
// provided for tests and for wiring code that cannot fail.
//
// Warnings are expected to carry an event type, a hint, and an impact; use
// WarnWithContext so those fields are always present.
package logging
