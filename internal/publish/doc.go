// Package publish uploads finished videos and returns a public reference.
//
// A Sink pairs a Client (mock, YouTube, S3) with a confirmation Gate. In
// unattended mode the gate is bypassed; otherwise every upload waits for an
// explicit yes from the gate, and a no is reported as an operator
// cancellation rather than a backend failure.
package publish
