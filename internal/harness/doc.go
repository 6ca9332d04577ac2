// Package harness runs transcript scenarios.
//
// A scenario is a YAML file holding a starting document, a list of host
// commands and assertions on the final tree. Each run gets its own
// transcript, in-memory journal and deterministic collaborators, so runs are
// reproducible and can execute in parallel.
//
// Every run also replays its own journal and fails if the replay diverges
// from the live run, which makes each scenario a determinism check as well.
//
// Golden snapshots (testdata/golden/<name>.golden) pin the command trace
// and the rendered chat container. Regenerate them with:
//
//	go test ./internal/harness -update
package harness
