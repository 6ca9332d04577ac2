package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chatdom/internal/transcript"
)

func runCheckCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewCheckCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCheckConsistentDocument(t *testing.T) {
	path := writeFile(t, t.TempDir(), "page.html",
		`<div id="chat"><div id="message-1" class="message"><div class="x-wrap">hi</div><span id="insert"></span></div></div>`)

	out, err := runCheckCommand(t, "text", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 message(s), anchor in message-1")
	assert.Contains(t, out, "✓ No violations")
	assert.Contains(t, out, "Markers: chat #chat, message message-*, anchor #insert, wrap .x-wrap*, merged .x-message*")
}

func TestCheckReportsViolations(t *testing.T) {
	path := writeFile(t, t.TempDir(), "page.html",
		`<div id="chat"><div id="message-1"><span id="insert"></span></div><div id="message-2"><span id="insert"></span></div></div>`)

	out, err := runCheckCommand(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ anchor_unique: 2 anchors present (insert)")
}

func TestCheckJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "page.html",
		`<div id="chat"><div id="message-1"><div id="message-2"></div></div></div>`)

	out, err := runCheckCommand(t, "json", path)
	require.Error(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   CheckResult   `json:"data"`
		Error  ResponseError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CodeInvariant, resp.Error.Code)
	assert.False(t, resp.Data.Anchor)
	assert.Equal(t, []string{"message-1", "message-2"}, resp.Data.MessageIDs)
	assert.Equal(t, "chat", resp.Data.ChatID)
	assert.Equal(t, transcript.Markers, resp.Data.Markers)

	rules := make([]string, 0, len(resp.Data.Violations))
	for _, v := range resp.Data.Violations {
		rules = append(rules, v.Rule)
	}
	assert.ElementsMatch(t, []string{transcript.RuleAnchorPresent, transcript.RuleMemberConsecutive}, rules)
}

func TestCheckMissingFile(t *testing.T) {
	_, err := runCheckCommand(t, "text", "does-not-exist.html")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
