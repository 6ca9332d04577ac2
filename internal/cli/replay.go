package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/chatdom/internal/engine"
	"github.com/roach88/chatdom/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
	Print    bool
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session       string            `json:"session"`
	Commands      int               `json:"commands"`
	Messages      int               `json:"messages"`
	Deterministic bool              `json:"deterministic"`
	Mismatches    []engine.Mismatch `json:"mismatches,omitempty"`
	Chat          string            `json:"chat,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay journaled sessions and verify determinism",
		Long: `Replay journaled sessions and verify determinism.

Each session is rebuilt from its starting document by applying its
commands in seq order, twice. A session is deterministic when every
replayed outcome matches the journal and both replays render the same
document.

Exit codes:
  0 - All sessions are deterministic
  1 - Determinism verification failed
  2 - Command error (database not found, unknown session, etc.)

Examples:
  chatdom replay --db ./chatdom.db
  chatdom replay --db ./chatdom.db --session 0190...
  chatdom replay --db ./chatdom.db --session 0190... --print`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path (overrides config)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay a specific session only")
	cmd.Flags().BoolVar(&opts.Print, "print", false, "include the replayed chat container in the output")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmdContext(cmd)
	out := opts.output(cmd)

	st, err := openJournal(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var ids []string
	if opts.Session != "" {
		ids = []string{opts.Session}
	} else {
		sessions, err := st.Sessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		for _, s := range sessions {
			ids = append(ids, s.ID)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(ids)),
		TotalSessions:    len(ids),
		AllDeterministic: true,
	}

	for _, id := range ids {
		sessionResult, err := replayAndVerifySession(ctx, opts, st, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", id))
			}
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", id), err)
		}
		out.Verbosef("replayed %s: %d commands", id, sessionResult.Commands)

		result.Sessions = append(result.Sessions, sessionResult)
		if !sessionResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	text := func(w io.Writer) { writeReplayText(w, result, opts.Verbose) }
	if !result.AllDeterministic {
		return out.Fail(CodeDeterminism, "determinism verification failed", result, text)
	}
	return out.Emit(result, text)
}

// replayAndVerifySession replays a session twice and compares both runs
// with the journal and with each other.
func replayAndVerifySession(ctx context.Context, opts *ReplayOptions, st *store.Store, id string) (ReplaySessionResult, error) {
	logger := opts.logger()

	first, err := engine.Replay(ctx, st, id, engine.WithLogger(logger))
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("first replay failed: %w", err)
	}
	second, err := engine.Replay(ctx, st, id, engine.WithLogger(logger))
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("second replay failed: %w", err)
	}

	doc1, err := first.Transcript.Render()
	if err != nil {
		return ReplaySessionResult{}, err
	}
	doc2, err := second.Transcript.Render()
	if err != nil {
		return ReplaySessionResult{}, err
	}

	result := ReplaySessionResult{
		Session:       id,
		Commands:      len(first.Results),
		Messages:      len(first.Transcript.MessageIDs()),
		Deterministic: first.Deterministic() && second.Deterministic() && doc1 == doc2,
		Mismatches:    first.Mismatches,
	}
	if opts.Print {
		if result.Chat, err = first.Transcript.RenderChat(); err != nil {
			return ReplaySessionResult{}, err
		}
	}
	return result, nil
}

func writeReplayText(w io.Writer, result ReplayResult, verbose bool) {
	if result.TotalSessions == 0 {
		fmt.Fprintln(w, "No sessions found in database.")
		return
	}

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Session: %s\n", status, s.Session)
		fmt.Fprintf(w, "  Commands: %d, messages: %d\n", s.Commands, s.Messages)

		if !s.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
		}
		if verbose || !s.Deterministic {
			for _, m := range s.Mismatches {
				fmt.Fprintf(w, "  seq %d %s: applied %t (journal %t), error %q (journal %q)\n",
					m.Seq, m.Kind, m.GotApplied, m.WantApplied, m.GotError, m.WantError)
			}
		}
		if s.Chat != "" {
			fmt.Fprintf(w, "  %s\n", s.Chat)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return
	}
	fmt.Fprintln(w, "✗ Determinism verification failed")
}

// openJournal opens the database named by flag, falling back to the
// configured path.
func openJournal(opts *RootOptions, flag string) (*store.Store, error) {
	path := flag
	if path == "" {
		path = opts.settings().Database
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "database path is required (--db or database in config)")
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
