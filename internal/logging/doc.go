// Package logging assembles structured slog loggers and formatting helpers used
// across Folio.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so readers, sessions and the
// importer can tag log lines with comic IDs, session IDs, and correlation IDs.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail, a progress sampler for long prefetch walks, and retention
// pruning for old log files.
package logging
