// Command listingcast is the operator CLI and daemon entry point.
//
// `listingcast daemon` runs the monitoring daemon in the foreground; `start`
// launches it in the background. The remaining commands talk to the daemon
// over its Unix socket, except `run`, `cards` and `contract`, which work
// locally without a daemon.
package main
