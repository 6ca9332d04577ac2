package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/roach88/chatdom/internal/command"
	"github.com/roach88/chatdom/internal/engine"
	"github.com/roach88/chatdom/internal/store"
	"github.com/roach88/chatdom/internal/transcript"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Database string
	Output   string
	ChatID   string
	Strict   bool

	// Sessions overrides the journal session id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Sessions engine.SessionGenerator
}

// ApplyStep is the outcome of one command.
type ApplyStep struct {
	Seq     int64  `json:"seq"`
	Kind    string `json:"kind"`
	Target  string `json:"target,omitempty"`
	Applied bool   `json:"applied"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ApplyResult holds the outcome of an apply run.
type ApplyResult struct {
	Session    string      `json:"session,omitempty"`
	Steps      []ApplyStep `json:"steps"`
	Applied    int         `json:"applied"`
	NoOps      int         `json:"no_ops"`
	Failed     int         `json:"failed"`
	MessageIDs []string    `json:"message_ids"`
	Chat       string      `json:"chat,omitempty"`
}

// commandFile is the on-disk shape of a command list.
type commandFile struct {
	Commands []command.Command `yaml:"commands"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <document.html> <commands.yaml>",
		Short: "Apply host commands to a transcript document",
		Long: `Apply a list of host commands to a transcript document.

Commands go through the single-writer engine in file order. With a
database (--db or "database" in the config file) every command and its
outcome is journaled so the session can be replayed and traced later.

The commands file holds a "commands" list:

  commands:
    - kind: append
      content: '<div id="message-1" class="message">...</div>'
    - kind: remove
      target: '#message-1'

Exit codes:
  0 - All commands succeeded (missing targets are not failures)
  1 - One or more commands failed
  2 - Command error (unreadable input, invalid commands file, etc.)

Examples:
  chatdom apply page.html commands.yaml
  chatdom apply page.html commands.yaml --db ./chatdom.db -o out.html
  chatdom apply page.html commands.yaml --strict --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path (overrides config)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the resulting document to this file")
	cmd.Flags().StringVar(&opts.ChatID, "chat-id", "", "message container id (overrides config)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on ambiguous layouts and check invariants after every command")

	return cmd
}

func runApply(opts *ApplyOptions, docPath, commandsPath string, cmd *cobra.Command) error {
	cfg := opts.settings()
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.ChatID != "" {
		cfg.ChatID = opts.ChatID
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict = opts.Strict
	}
	logger := opts.logger()
	out := opts.output(cmd)

	doc, err := os.ReadFile(docPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read document", err)
	}
	cmds, err := loadCommands(commandsPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load commands", err)
	}

	tr, err := transcript.NewFromHTML(string(doc),
		transcript.WithStrict(cfg.Strict),
		transcript.WithChatID(cfg.ChatID),
		transcript.WithLogger(logger),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse document", err)
	}

	reg := prometheus.NewRegistry()
	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithSettleDelay(cfg.SettleDelay),
		engine.WithScrollDelay(cfg.ScrollDelay),
		engine.WithMetrics(engine.NewMetrics(reg)),
		engine.WithSessionGenerator(opts.Sessions),
	}

	if cfg.Database != "" {
		logger.Info("opening journal", "path", cfg.Database)
		st, err := store.Open(cfg.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		engineOpts = append(engineOpts, engine.WithStore(st))
	}

	eng, err := engine.New(tr, nil, engineOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create engine", err)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := submitAll(ctx, eng, cmds)
	if err != nil {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	result, err := buildApplyResult(tr, cmds, results)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to render", err)
	}
	if cfg.Database != "" {
		result.Session = eng.Session()
	}

	if opts.Output != "" {
		rendered, err := tr.Render()
		if err != nil {
			return WrapExitError(ExitFailure, "failed to render document", err)
		}
		if err := os.WriteFile(opts.Output, []byte(rendered), 0644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		result.Chat = ""
		out.Verbosef("wrote %s", opts.Output)
	}

	for _, line := range metricLines(reg) {
		out.Verbosef("%s", line)
	}

	text := func(w io.Writer) { writeApplyText(w, result) }
	if result.Failed > 0 {
		return out.Fail(CodeCommandFailed, fmt.Sprintf("%d command(s) failed", result.Failed), result, text)
	}
	return out.Emit(result, text)
}

// loadCommands reads a commands file and validates every entry. Unknown
// fields are rejected.
func loadCommands(path string) ([]command.Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file commandFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, c := range file.Commands {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("commands[%d]: %w", i, err)
		}
	}
	return file.Commands, nil
}

// submitAll runs the engine loop while cmds are submitted one after the
// other, then stops it once the last result is in.
func submitAll(ctx context.Context, eng *engine.Engine, cmds []command.Command) ([]engine.Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(ctx)
	})

	results := make([]engine.Result, 0, len(cmds))
	var submitErr error
loop:
	for _, c := range cmds {
		done, err := eng.Submit(c)
		if err != nil {
			submitErr = err
			break
		}
		select {
		case res := <-done:
			results = append(results, res)
		case <-ctx.Done():
			submitErr = ctx.Err()
			break loop
		}
	}
	eng.Stop()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	if submitErr != nil {
		return nil, submitErr
	}
	return results, nil
}

func buildApplyResult(tr *transcript.Transcript, cmds []command.Command, results []engine.Result) (ApplyResult, error) {
	result := ApplyResult{
		Steps:      make([]ApplyStep, 0, len(results)),
		MessageIDs: tr.MessageIDs(),
	}
	for i, res := range results {
		step := ApplyStep{
			Seq:     res.Seq,
			Kind:    string(cmds[i].Kind),
			Target:  cmds[i].Target,
			Applied: res.Applied,
		}
		switch {
		case res.Err != nil:
			step.Code = string(engine.ErrorCode(res.Err))
			step.Error = res.Err.Error()
			result.Failed++
		case res.Applied:
			result.Applied++
		default:
			result.NoOps++
		}
		result.Steps = append(result.Steps, step)
	}

	chat, err := tr.RenderChat()
	if err != nil {
		return ApplyResult{}, err
	}
	result.Chat = chat
	return result, nil
}

func writeApplyText(w io.Writer, result ApplyResult) {
	for _, step := range result.Steps {
		label := step.Kind
		if step.Target != "" {
			label += " " + step.Target
		}
		switch {
		case step.Error != "":
			fmt.Fprintf(w, "✗ %d %s: %s\n", step.Seq, label, step.Error)
		case step.Applied:
			fmt.Fprintf(w, "✓ %d %s\n", step.Seq, label)
		default:
			fmt.Fprintf(w, "· %d %s (no target)\n", step.Seq, label)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Applied: %d, no-ops: %d, failed: %d\n", result.Applied, result.NoOps, result.Failed)
	if result.Session != "" {
		fmt.Fprintf(w, "Session: %s\n", result.Session)
	}
	fmt.Fprintf(w, "Messages: %s\n", strings.Join(result.MessageIDs, ", "))
	if result.Chat != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, result.Chat)
	}
}

// metricLines renders the gathered engine counters as "name{labels} value"
// lines, sorted.
func metricLines(reg *prometheus.Registry) []string {
	families, err := reg.Gather()
	if err != nil {
		return []string{fmt.Sprintf("gather metrics: %v", err)}
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			value := m.GetCounter().GetValue() + m.GetGauge().GetValue()
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, value))
		}
	}
	sort.Strings(lines)
	return lines
}
