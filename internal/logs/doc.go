// Package logs reads the daemon log for `listingcast logs`.
//
// Last returns the final lines of a file with bounded memory and the offset
// to continue from; Follow polls from that offset and hands each new line to
// a callback until the context ends. A log that shrinks (the daemon restarted
// and the listingcast.log pointer moved) is re-read from the start.
package logs
