// Package logging assembles structured slog loggers and formatting helpers used
// across listingcast components.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline and monitor code can tag log
// lines with work-item IDs, stage names, and run IDs. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
