package store

import (
	"context"
	"fmt"

	"github.com/roach88/chatdom/internal/command"
)

// SessionSummary describes a journaled session for inspection.
type SessionSummary struct {
	Session Session
	Records []command.Record
	LastSeq int64
	Applied int            // Commands that changed the tree
	NoOps   int            // Commands whose target did not resolve
	Failed  int            // Commands that returned an error
	Gaps    []int64        // Missing seq numbers between 1 and LastSeq
	PerKind map[string]int // Command count per kind
}

// Summarize loads a session and its records and tallies their outcomes.
func (s *Store) Summarize(ctx context.Context, id string) (SessionSummary, error) {
	sess, err := s.ReadSession(ctx, id)
	if err != nil {
		return SessionSummary{}, fmt.Errorf("summarize %s: %w", id, err)
	}
	recs, err := s.ReadRecords(ctx, id)
	if err != nil {
		return SessionSummary{}, fmt.Errorf("summarize %s: %w", id, err)
	}

	sum := SessionSummary{
		Session: sess,
		Records: recs,
		PerKind: make(map[string]int),
	}

	var want int64 = 1
	for _, rec := range recs {
		for ; want < rec.Seq; want++ {
			sum.Gaps = append(sum.Gaps, want)
		}
		want = rec.Seq + 1
		sum.LastSeq = rec.Seq
		sum.PerKind[string(rec.Command.Kind)]++

		switch {
		case rec.Error != "":
			sum.Failed++
		case rec.Applied:
			sum.Applied++
		default:
			sum.NoOps++
		}
	}

	return sum, nil
}
