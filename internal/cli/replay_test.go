package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chatdom/internal/command"
	"github.com/roach88/chatdom/internal/engine"
	"github.com/roach88/chatdom/internal/store"
	"github.com/roach88/chatdom/internal/transcript"
)

const journalDocument = `<div id="chat"><div id="message-1" class="message"><div class="x-wrap">hi</div><span id="insert"></span></div></div>`

// writeJournal journals a short session (append, promote and a removal that
// misses) to the database at path.
func writeJournal(t *testing.T, path, session string) {
	t.Helper()

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	tr, err := transcript.NewFromHTML(journalDocument)
	require.NoError(t, err)

	eng, err := engine.New(tr, nil,
		engine.WithStore(st),
		engine.WithSessionGenerator(engine.NewFixedGenerator(session)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)

	ctx := context.Background()
	cmds := []command.Command{
		{Kind: command.KindAppend, Content: `<div id="message-2" class="message"><div class="x-wrap">next</div><span id="insert"></span></div>`},
		{
			Kind:        command.KindPromote,
			Target:      "message-2",
			Content:     `<div id="message-2" class="message"><div class="x-wrap">next</div><span id="insert-consecutive"></span></div>`,
			Consecutive: `<div id="message-3" class="message consecutive"><div class="x-wrap">more</div></div>`,
		},
		{Kind: command.KindRemove, Target: "#message-9"},
	}
	for _, c := range cmds {
		res := eng.Apply(ctx, c)
		require.NoError(t, res.Err)
	}
}

func runReplayCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestReplayMissingDatabase(t *testing.T) {
	_, err := runReplayCommand(t, "text")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database path is required")
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := runReplayCommand(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found in database.")
}

func TestReplayDeterministic(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	writeJournal(t, dbPath, "session-1")

	out, err := runReplayCommand(t, "text", "--db", dbPath, "--print")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Session: session-1")
	assert.Contains(t, out, "Commands: 3, messages: 3")
	assert.Contains(t, out, `id="message-3"`)
	assert.Contains(t, out, "✓ All sessions verified deterministic")
}

func TestReplayJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	writeJournal(t, dbPath, "session-1")
	writeJournal(t, dbPath, "session-2")

	out, err := runReplayCommand(t, "json", "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.TotalSessions)
	assert.True(t, resp.Data.AllDeterministic)
	require.Len(t, resp.Data.Sessions, 2)
	assert.Equal(t, "session-1", resp.Data.Sessions[0].Session)
	assert.Empty(t, resp.Data.Sessions[0].Chat)
}

func TestReplayDetectsTamperedJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	writeJournal(t, dbPath, "session-1")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	_, err = st.DB().Exec(`UPDATE commands SET applied = 1 WHERE session = ? AND seq = 3`, "session-1")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := runReplayCommand(t, "text", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Session: session-1")
	assert.Contains(t, out, "Warning: Non-deterministic replay detected!")
	assert.Contains(t, out, "seq 3 remove: applied false (journal true)")
}

func TestReplayUnknownSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	writeJournal(t, dbPath, "session-1")

	_, err := runReplayCommand(t, "text", "--db", dbPath, "--session", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "session not found: nope")
}
