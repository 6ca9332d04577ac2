// Package store provides the SQLite journal of applied host commands.
//
// The journal is append-only:
//   - Sessions: the initial document a run started from
//   - Commands: every command submitted in a session, with its outcome
//
// # Ordering
//
// Commands are ordered by their logical sequence number, never by
// timestamps. Every read uses ORDER BY seq ASC, id ASC COLLATE BINARY so a
// replay sees commands in exactly the order they were applied.
//
// # Idempotency
//
// Command ids are content-addressed (see internal/command). Writing the same
// record twice is a no-op.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
