// Package engine serializes host commands onto one transcript.
//
// The transcript is not safe for concurrent use. The engine reproduces the
// single UI thread it was written for: commands are submitted from any
// goroutine into a FIFO queue and applied one at a time by the goroutine
// running Run.
//
// Command processing:
//  1. Submit enqueues the command
//  2. Run dequeues it and stamps it with the next logical seq
//  3. Apply dispatches on the command kind and edits the tree
//  4. In strict mode the tree invariants are checked after the edit
//  5. The outcome is journaled when a store is configured
//
// Failures are logged and processing continues. A failed command is still
// journaled with its error so that replay sees the same sequence.
//
// Outbound notifications go through the Host interface. The ready signal
// fires once, a settle delay after Run starts. Scroll requests are deferred
// through the Scheduler and are never coalesced.
package engine
