// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships
// the matching client used by the CLI.
//
// The server registers a single service, Listingcast, whose methods map onto
// daemon operations: monitoring start/stop, status, one-off runs, publish
// mode, the approval queue, run history and queue listing. Request and
// response types carry json tags and are the wire contract between CLI and
// daemon builds.
package ipc
