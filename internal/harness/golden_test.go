package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Walkthrough(t *testing.T) {
	// Regenerate with:
	//   go test ./internal/harness -run TestRunWithGolden -update
	err := RunWithGolden(t, loadTestScenario(t, "wrap_walkthrough"))
	require.NoError(t, err)
}

func TestRunWithGolden_MergedDissolve(t *testing.T) {
	err := RunWithGolden(t, loadTestScenario(t, "merged_dissolve"))
	require.NoError(t, err)
}

func TestAssertGolden_ExistingResult(t *testing.T) {
	result, err := Run(loadTestScenario(t, "merged_dissolve"))
	require.NoError(t, err)

	require.NoError(t, AssertGolden(t, "merged_dissolve", result))
}

func TestSnapshotBytes_Canonical(t *testing.T) {
	result := NewResult("tiny")
	result.Trace = append(result.Trace, TraceEvent{Seq: 1, Kind: "scroll", Applied: true})
	result.MessageIDs = []string{}
	result.Chat = `<div id="chat"></div>`

	data, err := SnapshotBytes("tiny", result)
	require.NoError(t, err)
	require.Equal(t,
		`{"chat":"<div id=\"chat\"></div>","message_ids":[],"scenario_name":"tiny","trace":[{"applied":true,"kind":"scroll","seq":1}]}`,
		string(data))
}
