// Package testutil holds deterministic stand-ins for the engine's
// collaborators: a logical clock, a session id generator, a scheduler that
// only fires when told to and a host that records what it was sent.
//
// The types satisfy the engine interfaces structurally, so this package
// does not import the engine.
package testutil
