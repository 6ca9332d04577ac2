// Package transcript keeps a chat transcript's document tree consistent
// while messages are appended, promoted into groups and removed.
//
// The tree is the state. A message is an element whose id starts with
// "message-". A run of consecutive messages from one sender forms a group,
// and a group is rendered in one of two layouts:
//
//	Wrap layout    the group node is the leader message; its members are
//	               nested message elements next to an "x-wrap" marker.
//	Merged layout  the group node is the leader message relabeled with the
//	               group identity; the leader's content is flattened into an
//	               "x-message" element, its time into an "x-time" element,
//	               and later members are nested message elements.
//
// A single <span id="insert"> anchor marks where the next message lands.
// EnsureAnchor re-derives it after structural edits.
//
// INVARIANTS (after every exported mutation):
//   - at most one anchor exists
//   - if any message exists, exactly one anchor exists (unless the last
//     call removed the anchor itself)
//   - ids stay unique across merges and splits
//   - a nested group member carries the "consecutive" class and a group
//     leader does not
//
// A Transcript is confined to one goroutine. Use the engine package when
// several goroutines submit edits.
package transcript
