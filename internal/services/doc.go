// Package services defines shared utilities consumed by the pipeline, monitor
// and backend integrations.
//
// Key responsibilities:
//   - Context helpers that stamp work-item IDs, stage names, and run
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is.
//   - Message helpers for the short failure text written back to the queue.
package services
