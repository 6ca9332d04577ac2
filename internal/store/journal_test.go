package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chatdom/internal/command"
)

func writeTestSession(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.WriteSession(context.Background(), Session{
		ID:       id,
		ChatID:   "chat",
		Document: `<div id="chat"></div>`,
		Strict:   true,
	})
	require.NoError(t, err)
}

func testRecord(t *testing.T, session string, seq int64, cmd command.Command, applied bool) command.Record {
	t.Helper()
	rec, err := command.NewRecord(session, seq, cmd)
	require.NoError(t, err)
	rec.Applied = applied
	return rec
}

func TestWriteSession_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")

	got, err := s.ReadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, Session{ID: "s1", ChatID: "chat", Document: `<div id="chat"></div>`, Strict: true}, got)

	_, err = s.ReadSession(ctx, "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestWriteSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	writeTestSession(t, s, "s1")
	writeTestSession(t, s, "s1")

	sessions, err := s.Sessions(context.Background())
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestWriteRecord_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")

	cmds := []command.Command{
		{Kind: command.KindAppend, Content: `<div id="message-1"></div>`},
		{Kind: command.KindRemove, Target: "#message-1"},
		{Kind: command.KindScroll},
	}
	// Written out of order on purpose.
	for _, i := range []int{2, 0, 1} {
		require.NoError(t, s.WriteRecord(ctx, testRecord(t, "s1", int64(i+1), cmds[i], true)))
	}

	recs, err := s.ReadRecords(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, int64(i+1), rec.Seq)
		assert.Equal(t, cmds[i], rec.Command)
	}
}

func TestWriteRecord_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")

	rec := testRecord(t, "s1", 1, command.Command{Kind: command.KindScroll}, false)
	require.NoError(t, s.WriteRecord(ctx, rec))
	require.NoError(t, s.WriteRecord(ctx, rec))

	// A different command at the same position is ignored as well.
	other := testRecord(t, "s1", 1, command.Command{Kind: command.KindRemove, Target: "#x"}, true)
	require.NoError(t, s.WriteRecord(ctx, other))

	recs, err := s.ReadRecords(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID, recs[0].ID)
}

func TestWriteRecord_RequiresSession(t *testing.T) {
	s := createTestStore(t)
	rec := testRecord(t, "ghost", 1, command.Command{Kind: command.KindScroll}, false)
	assert.Error(t, s.WriteRecord(context.Background(), rec))
}

func TestReadRecords_Empty(t *testing.T) {
	s := createTestStore(t)
	recs, err := s.ReadRecords(context.Background(), "none")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestReadRecordsByKind(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")

	require.NoError(t, s.WriteRecord(ctx, testRecord(t, "s1", 1, command.Command{Kind: command.KindAppend, Content: "<p></p>"}, true)))
	require.NoError(t, s.WriteRecord(ctx, testRecord(t, "s1", 2, command.Command{Kind: command.KindScroll}, true)))
	require.NoError(t, s.WriteRecord(ctx, testRecord(t, "s1", 3, command.Command{Kind: command.KindAppend, Content: "<b></b>"}, true)))

	recs, err := s.ReadRecordsByKind(ctx, "s1", command.KindAppend)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(1), recs[0].Seq)
	assert.Equal(t, int64(3), recs[1].Seq)
}

func TestLatestSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")

	seq, err := s.LatestSeq(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.WriteRecord(ctx, testRecord(t, "s1", 4, command.Command{Kind: command.KindScroll}, true)))
	seq, err = s.LatestSeq(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), seq)
}

func TestSummarize(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")

	failed := testRecord(t, "s1", 3, command.Command{Kind: command.KindRemove, Target: "#g"}, false)
	failed.Error = "ambiguous group layout"

	require.NoError(t, s.WriteRecord(ctx, testRecord(t, "s1", 1, command.Command{Kind: command.KindAppend, Content: "<p></p>"}, true)))
	require.NoError(t, s.WriteRecord(ctx, testRecord(t, "s1", 2, command.Command{Kind: command.KindRemove, Target: "#nope"}, false)))
	require.NoError(t, s.WriteRecord(ctx, failed))
	require.NoError(t, s.WriteRecord(ctx, testRecord(t, "s1", 5, command.Command{Kind: command.KindScroll}, true)))

	sum, err := s.Summarize(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), sum.LastSeq)
	assert.Equal(t, 2, sum.Applied)
	assert.Equal(t, 1, sum.NoOps)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, []int64{4}, sum.Gaps)
	assert.Equal(t, map[string]int{"append": 1, "remove": 2, "scroll": 1}, sum.PerKind)

	_, err = s.Summarize(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
