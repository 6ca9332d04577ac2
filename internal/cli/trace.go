package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/chatdom/internal/command"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Kind     string // optional - filter to one command kind
}

// TraceEntry is one journaled command in the timeline.
type TraceEntry struct {
	Seq         int64  `json:"seq"`
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Target      string `json:"target,omitempty"`
	Content     string `json:"content,omitempty"`
	Consecutive string `json:"consecutive,omitempty"`
	Property    string `json:"property,omitempty"`
	Value       string `json:"value,omitempty"`
	Applied     bool   `json:"applied"`
	Error       string `json:"error,omitempty"`
}

// TraceStats holds summary statistics for the session.
type TraceStats struct {
	TotalCommands int            `json:"total_commands"`
	LastSeq       int64          `json:"last_seq"`
	Applied       int            `json:"applied"`
	NoOps         int            `json:"no_ops"`
	Failed        int            `json:"failed"`
	Gaps          []int64        `json:"gaps,omitempty"`
	PerKind       map[string]int `json:"per_kind"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session  string       `json:"session"`
	ChatID   string       `json:"chat_id"`
	Strict   bool         `json:"strict"`
	Timeline []TraceEntry `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the command timeline of a session",
		Long: `Show the journaled commands of a session in seq order.

The output includes:
- Timeline: every command with its outcome (applied, no target or error)
- Stats: outcome counts, commands per kind and any gaps in the seq range

Examples:
  chatdom trace --db ./chatdom.db --session 0190...
  chatdom trace --db ./chatdom.db --session 0190... --kind promote
  chatdom trace --db ./chatdom.db --session 0190... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path (overrides config)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to trace (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter the timeline to one command kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmdContext(cmd)
	out := opts.output(cmd)

	if opts.Kind != "" && !command.Kind(opts.Kind).Valid() {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown command kind %q", opts.Kind))
	}

	st, err := openJournal(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := st.Summarize(ctx, opts.Session)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
		}
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	records := summary.Records
	if opts.Kind != "" {
		records, err = st.ReadRecordsByKind(ctx, opts.Session, command.Kind(opts.Kind))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read records", err)
		}
	}

	result := TraceResult{
		Session:  summary.Session.ID,
		ChatID:   summary.Session.ChatID,
		Strict:   summary.Session.Strict,
		Timeline: make([]TraceEntry, 0, len(records)),
		Stats: TraceStats{
			TotalCommands: len(summary.Records),
			LastSeq:       summary.LastSeq,
			Applied:       summary.Applied,
			NoOps:         summary.NoOps,
			Failed:        summary.Failed,
			Gaps:          summary.Gaps,
			PerKind:       summary.PerKind,
		},
	}
	for _, rec := range records {
		result.Timeline = append(result.Timeline, TraceEntry{
			Seq:         rec.Seq,
			ID:          rec.ID,
			Kind:        string(rec.Command.Kind),
			Target:      rec.Command.Target,
			Content:     rec.Command.Content,
			Consecutive: rec.Command.Consecutive,
			Property:    rec.Command.Property,
			Value:       rec.Command.Value,
			Applied:     rec.Applied,
			Error:       rec.Error,
		})
	}

	return out.Emit(result, func(w io.Writer) {
		writeTraceText(w, result, opts.Verbose)
	})
}

func writeTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintf(w, "Session: %s (chat #%s", result.Session, result.ChatID)
	if result.Strict {
		fmt.Fprint(w, ", strict")
	}
	fmt.Fprintln(w, ")")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Timeline:")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no commands)")
	}
	for _, e := range result.Timeline {
		label := e.Kind
		if e.Target != "" {
			label += " " + e.Target
		}
		switch {
		case e.Error != "":
			fmt.Fprintf(w, "  [%d] %s ✗ %s\n", e.Seq, label, e.Error)
		case e.Applied:
			fmt.Fprintf(w, "  [%d] %s ✓\n", e.Seq, label)
		default:
			fmt.Fprintf(w, "  [%d] %s · no target\n", e.Seq, label)
		}
		if verbose {
			fmt.Fprintf(w, "       id: %s\n", shortID(e.ID))
			if e.Content != "" {
				fmt.Fprintf(w, "       content: %s\n", e.Content)
			}
			if e.Consecutive != "" {
				fmt.Fprintf(w, "       consecutive: %s\n", e.Consecutive)
			}
			if e.Property != "" {
				fmt.Fprintf(w, "       style: %s: %s\n", e.Property, e.Value)
			}
		}
	}
	fmt.Fprintln(w)

	s := result.Stats
	fmt.Fprintln(w, "Stats:")
	fmt.Fprintf(w, "  Commands: %d (last seq %d)\n", s.TotalCommands, s.LastSeq)
	fmt.Fprintf(w, "  Applied: %d, no-ops: %d, failed: %d\n", s.Applied, s.NoOps, s.Failed)
	if len(s.PerKind) > 0 {
		kinds := make([]string, 0, len(s.PerKind))
		for k := range s.PerKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		parts := make([]string, len(kinds))
		for i, k := range kinds {
			parts[i] = fmt.Sprintf("%s=%d", k, s.PerKind[k])
		}
		fmt.Fprintf(w, "  Per kind: %s\n", strings.Join(parts, ", "))
	}
	if len(s.Gaps) > 0 {
		fmt.Fprintf(w, "  Gaps: %v\n", s.Gaps)
	}
}

// shortID truncates a command id for display.
func shortID(id string) string {
	if len(id) > 16 {
		return id[:16]
	}
	return id
}
