// Package daemon coordinates the long-running listingcast process.
//
// It wires configuration, the work-queue source, the pipeline, the publish
// sink with its approval gate, run history and the monitoring loop into a
// single lifecycle with flock-based locking to prevent multiple instances.
// The daemon exposes the operations the IPC layer and HTTP API call:
// starting and stopping monitoring, manual runs, publish-mode toggling,
// approval decisions and status snapshots.
//
// Keep orchestration logic here: pipeline stages live in internal/pipeline
// and the polling loop in internal/monitor, while the daemon focuses on
// startup, shutdown and high level coordination.
package daemon
