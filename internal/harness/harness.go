package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/chatdom/internal/engine"
	"github.com/roach88/chatdom/internal/store"
	"github.com/roach88/chatdom/internal/testutil"
	"github.com/roach88/chatdom/internal/transcript"
)

// flushDelay is far past any scheduled scroll; advancing by it runs every
// deferred call before assertions are evaluated.
const flushDelay = time.Hour

// Harness holds the collaborators of one scenario run.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	host   *testutil.RecordingHost
	sched  *testutil.ManualScheduler
	logger *slog.Logger
}

// Run executes a scenario in a fresh in-memory journal and returns the
// result. The error return is reserved for setup failures; failing steps
// and assertions are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tr, err := transcript.NewFromHTML(scenario.Document,
		transcript.WithStrict(!scenario.Lenient),
		transcript.WithChatID(scenario.ChatID),
		transcript.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	h := &Harness{
		store:  st,
		host:   testutil.NewRecordingHost(),
		sched:  testutil.NewManualScheduler(),
		logger: logger,
	}
	h.engine, err = engine.New(tr, h.host,
		engine.WithStore(st),
		engine.WithScheduler(h.sched),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithSessionGenerator(testutil.NewFixedSessionGenerator(scenario.Session)),
		engine.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	result := NewResult(scenario.Name)
	h.executeSteps(ctx, scenario.Steps, result)
	h.sched.Advance(flushDelay)

	if err := h.verifyReplay(ctx, result); err != nil {
		return nil, err
	}

	if result.Chat, err = tr.RenderChat(); err != nil {
		return nil, fmt.Errorf("failed to render chat: %w", err)
	}
	result.MessageIDs = tr.MessageIDs()

	actx := &AssertionContext{
		Transcript: tr,
		Host:       h.host,
	}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) {
	for i, step := range steps {
		res := h.engine.Apply(ctx, step.Command)

		ev := TraceEvent{
			Seq:     res.Seq,
			Kind:    string(step.Kind),
			Target:  step.Target,
			Applied: res.Applied,
			Code:    string(engine.ErrorCode(res.Err)),
		}
		result.Trace = append(result.Trace, ev)

		if step.Expect == nil {
			if res.Err != nil {
				result.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %v", i, step.Command, res.Err))
			}
			continue
		}
		if want := step.Expect.Applied; want != nil && *want != res.Applied {
			result.AddError(fmt.Sprintf("steps[%d] %s: applied = %t, want %t", i, step.Command, res.Applied, *want))
		}
		if step.Expect.Error != ev.Code {
			result.AddError(fmt.Sprintf("steps[%d] %s: error code = %q, want %q", i, step.Command, ev.Code, step.Expect.Error))
		}
	}
}

// verifyReplay replays the run's journal and records any divergence.
func (h *Harness) verifyReplay(ctx context.Context, result *Result) error {
	report, err := engine.Replay(ctx, h.store, h.engine.Session(), engine.WithLogger(h.logger))
	if err != nil {
		return fmt.Errorf("failed to replay: %w", err)
	}
	for _, m := range report.Mismatches {
		result.AddError(fmt.Sprintf("replay diverged at seq %d (%s): applied %t/%t error %q/%q",
			m.Seq, m.Kind, m.WantApplied, m.GotApplied, m.WantError, m.GotError))
	}

	live, err := h.engine.Transcript().Render()
	if err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}
	replayed, err := report.Transcript.Render()
	if err != nil {
		return fmt.Errorf("failed to render replay: %w", err)
	}
	if live != replayed {
		result.AddError("replayed document differs from live document")
	}
	return nil
}

// RunAll runs scenarios concurrently, at most limit at a time (limit <= 0
// means no limit). Results keep the order of scenarios.
func RunAll(ctx context.Context, scenarios []*Scenario, limit int) ([]*Result, error) {
	results := make([]*Result, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, s := range scenarios {
		g.Go(func() error {
			res, err := RunContext(ctx, s)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", s.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
