package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/chatdom/internal/command"
)

// Snapshot is the golden-file view of a scenario run.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
	MessageIDs   []string     `json:"message_ids"`
	Chat         string       `json:"chat"`
}

// toCanonical converts the snapshot to the shape command.MarshalCanonical
// accepts.
func (s *Snapshot) toCanonical() command.Object {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		event := command.Object{
			"seq":     ev.Seq,
			"kind":    ev.Kind,
			"applied": ev.Applied,
		}
		if ev.Target != "" {
			event["target"] = ev.Target
		}
		if ev.Code != "" {
			event["code"] = ev.Code
		}
		trace[i] = event
	}

	return command.Object{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"message_ids":   s.MessageIDs,
		"chat":          s.Chat,
	}
}

// SnapshotBytes returns the canonical JSON golden-file content for result.
func SnapshotBytes(name string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		MessageIDs:   result.MessageIDs,
		Chat:         result.Chat,
	}
	return command.MarshalCanonical(snapshot.toCanonical())
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden. The scenario's own failures are
// reported through t.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against the golden file for
// name without running anything.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := SnapshotBytes(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}
