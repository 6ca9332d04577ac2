package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/chatdom/internal/transcript"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	ChatID string
}

// CheckResult holds the outcome of a document check.
type CheckResult struct {
	File       string                 `json:"file"`
	MessageIDs []string               `json:"message_ids"`
	Anchor     bool                   `json:"anchor"`
	AnchorIn   string                 `json:"anchor_in,omitempty"`
	Violations []transcript.Violation `json:"violations"`
	ChatID     string                 `json:"chat_id"`
	Markers    transcript.MarkerSet   `json:"markers"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <document.html>",
		Short: "Check a transcript document's invariants",
		Long: `Check a transcript document against the grouping invariants.

Reported rules:
  anchor_unique       - at most one insertion anchor
  anchor_present      - an anchor exists whenever messages exist
  unique_ids          - message ids are unique
  member_consecutive  - every nested message is flagged consecutive
  leader_consecutive  - no group leader is flagged consecutive

Exit codes:
  0 - Document is consistent
  1 - One or more violations
  2 - Command error (unreadable file, etc.)

Examples:
  chatdom check page.html
  chatdom check page.html --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ChatID, "chat-id", "", "message container id (overrides config)")

	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	cfg := opts.settings()
	if opts.ChatID != "" {
		cfg.ChatID = opts.ChatID
	}
	out := opts.output(cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read document", err)
	}
	tr, err := transcript.NewFromHTML(string(data),
		transcript.WithChatID(cfg.ChatID),
		transcript.WithLogger(opts.logger()),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse document", err)
	}

	result := CheckResult{
		File:       path,
		MessageIDs: tr.MessageIDs(),
		Violations: tr.Check(),
		ChatID:     tr.ChatID(),
		Markers:    transcript.Markers,
	}
	if result.Violations == nil {
		result.Violations = []transcript.Violation{}
	}
	if anchor := tr.Anchor(); anchor != nil {
		result.Anchor = true
		if id, err := transcript.ResolveMessageID(anchor.Parent); err == nil {
			result.AnchorIn = id
		}
	}
	out.Verbosef("checked %d messages in %s", len(result.MessageIDs), path)

	text := func(w io.Writer) { writeCheckText(w, result) }
	if len(result.Violations) > 0 {
		return out.Fail(CodeInvariant, fmt.Sprintf("%d violation(s)", len(result.Violations)), result, text)
	}
	return out.Emit(result, text)
}

func writeCheckText(w io.Writer, result CheckResult) {
	fmt.Fprintf(w, "%s: %d message(s)", result.File, len(result.MessageIDs))
	if result.AnchorIn != "" {
		fmt.Fprintf(w, ", anchor in %s", result.AnchorIn)
	}
	fmt.Fprintln(w)
	m := result.Markers
	fmt.Fprintf(w, "Markers: chat #%s, message %s*, anchor #%s, wrap .%s*, merged .%s*\n",
		result.ChatID, m.MessagePrefix, m.AnchorID, m.WrapClassPrefix, m.MergedClassPrefix)

	if len(result.Violations) == 0 {
		fmt.Fprintln(w, "✓ No violations")
		return
	}
	for _, v := range result.Violations {
		fmt.Fprintf(w, "✗ %s\n", v)
	}
}
