// Package progress maps the pipeline's ordered stages to an overall completion
// percentage and forwards updates to an optional observer.
//
// Stage descriptors are data (stages.yaml, embedded at build time). Tracker is
// advisory telemetry only: observer failures are logged and swallowed.
package progress
