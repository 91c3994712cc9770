// Package history keeps an SQLite ledger of pipeline runs.
//
// The ledger is an audit trail for operators (`listingcast history`, the
// daemon's /api/history endpoint). The monitoring loop never consults it when
// deciding whether an item was already processed.
package history
