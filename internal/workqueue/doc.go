// Package workqueue reads listing rows from an external work queue and writes
// per-row status back.
//
// Source tries an ordered chain of Connectors (database, public CSV export,
// Sheets API key, Sheets OAuth) and caches the first connection that succeeds.
// Heterogeneous column names are mapped onto WorkItem fields through alias
// tables compared after NFC normalization and case folding. When no strategy
// connects, ListPending returns a fixed two-row sample set so the monitoring
// loop always has something well-formed to work with. UpdateStatus is best
// effort and never returns an error.
package workqueue
