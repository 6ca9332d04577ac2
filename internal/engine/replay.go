package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/chatdom/internal/store"
	"github.com/roach88/chatdom/internal/transcript"
)

// Replay
//
// A session is replayed by rebuilding its starting document and applying
// its journaled commands through the same Apply path, each at its recorded
// seq. Nothing is written back to the store. Host notifications are
// dropped and scrolls are never scheduled.
//
// Since every command is a deterministic transition over the tree, the
// replayed outcome of each command must equal the journaled one. Any
// difference is reported as a Mismatch.

// Mismatch is a command whose replayed outcome differs from the journal.
type Mismatch struct {
	Seq         int64  `json:"seq"`
	Kind        string `json:"kind"`
	WantApplied bool   `json:"want_applied"`
	GotApplied  bool   `json:"got_applied"`
	WantError   string `json:"want_error,omitempty"`
	GotError    string `json:"got_error,omitempty"`
}

// ReplayReport is the outcome of replaying one session.
type ReplayReport struct {
	Session    store.Session
	Transcript *transcript.Transcript
	Results    []Result
	Mismatches []Mismatch
}

// Deterministic reports whether every command replayed identically.
func (r *ReplayReport) Deterministic() bool {
	return len(r.Mismatches) == 0
}

// Replay rebuilds session id from st. Options apply to the replaying
// engine; store, host and scheduler options are overridden.
func Replay(ctx context.Context, st *store.Store, id string, opts ...Option) (*ReplayReport, error) {
	sess, err := st.ReadSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", id, err)
	}
	recs, err := st.ReadRecords(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", id, err)
	}

	tr, err := transcript.NewFromHTML(sess.Document,
		transcript.WithStrict(sess.Strict),
		transcript.WithChatID(sess.ChatID),
	)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", id, err)
	}

	opts = append(opts,
		WithStore(nil),
		WithScheduler(nopScheduler{}),
		WithSessionGenerator(NewFixedGenerator(id)),
	)
	eng, err := New(tr, discardHost{}, opts...)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", id, err)
	}

	report := &ReplayReport{
		Session:    sess,
		Transcript: tr,
		Results:    make([]Result, 0, len(recs)),
	}
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res := eng.applyAt(ctx, rec.Seq, rec.Command)
		report.Results = append(report.Results, res)

		got := ""
		if res.Err != nil {
			got = res.Err.Error()
		}
		if res.Applied != rec.Applied || got != rec.Error {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Seq:         rec.Seq,
				Kind:        string(rec.Command.Kind),
				WantApplied: rec.Applied,
				GotApplied:  res.Applied,
				WantError:   rec.Error,
				GotError:    got,
			})
		}
	}

	return report, nil
}

type discardHost struct{}

func (discardHost) ContextMenu(string) {}
func (discardHost) LoadFinished(bool)  {}
func (discardHost) ScrollToBottom()    {}

type nopScheduler struct{}

func (nopScheduler) AfterFunc(time.Duration, func()) func() bool {
	return func() bool { return false }
}
