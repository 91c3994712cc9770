// Package preflight provides readiness checks for the paths, queue source and
// external services listingcast depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs every failed check.
//   - The CLI "listingcast status" command shows each result as a status line.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
