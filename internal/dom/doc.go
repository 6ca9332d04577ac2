// Package dom provides the tree primitives the transcript engine edits.
//
// A Document wraps a parsed golang.org/x/net/html tree. Queries use CSS
// selectors compiled by cascadia and follow querySelector semantics: the
// node a query starts from is never itself a match, only its descendants.
//
// Every mutation helper accepts nodes that are still attached elsewhere in
// the tree and detaches them first, the way DOM insertion moves a node.
// x/net/html panics when a node with a parent or siblings is inserted, so
// callers must go through these helpers rather than AppendChild directly.
//
// The package holds no state beyond the tree and is not safe for concurrent
// use.
package dom
