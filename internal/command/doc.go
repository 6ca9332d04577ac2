// Package command defines the host operations applied to a transcript.
//
// A Command is plain data: it is read from scenario files, journaled by the
// store and replayed by the engine. Records carry a content-addressed id so
// that a replayed session can be compared with the original one command at a
// time.
//
// Key constraints:
//   - Commands hold strings and booleans only, never floats
//   - All JSON and YAML tags use snake_case
//   - Ordering is by logical sequence number (seq), never wall-clock time
package command
