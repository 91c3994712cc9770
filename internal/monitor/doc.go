// Package monitor runs the background polling loop that feeds queue rows
// into the pipeline.
//
// A Monitor is stopped until Start launches its single worker goroutine. The
// worker polls the queue, skips rows whose composite key is already in the
// processed set, and runs each new row through the pipeline one at a time
// with a cooldown between rows. Every row is added to the processed set once
// handled, including rows that failed or panicked, so a broken row is never
// retried in the same process. Poll failures back off and retry until Stop
// is called or the parent context ends.
package monitor
