package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/chatdom/internal/command"
	"github.com/roach88/chatdom/internal/store"
	"github.com/roach88/chatdom/internal/transcript"
)

// Default delays.
const (
	// DefaultSettleDelay is how long after Run starts the ready signal is
	// sent to the host.
	DefaultSettleDelay = time.Second

	// DefaultScrollDelay defers a scroll request until the host has laid out
	// the edit that preceded it.
	DefaultScrollDelay = 5 * time.Millisecond
)

// Result is the outcome of one command.
type Result struct {
	Seq     int64
	Applied bool
	Err     error
}

// Engine is the single-writer command loop around one transcript.
//
// Thread-safety model:
//   - Submit, Stop: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//   - Apply: only from the Run goroutine, or while Run is not running
type Engine struct {
	tr       *transcript.Transcript
	host     Host
	store    *store.Store
	sched    Scheduler
	clock    SeqClock
	sessions SessionGenerator
	queue    *commandQueue
	metrics  *Metrics
	logger   *slog.Logger

	settleDelay time.Duration
	scrollDelay time.Duration

	session        string
	initial        string
	sessionWritten bool
	readyOnce      sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore journals every command to s.
func WithStore(s *store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithScheduler replaces the real-time scheduler.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.sched = s
		}
	}
}

// WithClock replaces the logical clock.
func WithClock(c SeqClock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithSessionGenerator sets how the journal session id is produced.
// Defaults to UUIDv7Generator.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.sessions = g
		}
	}
}

// WithSettleDelay sets the delay before the ready signal.
func WithSettleDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.settleDelay = d
	}
}

// WithScrollDelay sets the delay applied to scroll requests.
func WithScrollDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.scrollDelay = d
	}
}

// WithMetrics sets the collectors. Defaults to an unregistered set.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine for tr. A nil host logs notifications instead.
//
// When a store is configured the current document is captured as the
// session's starting point, so New must run before any edit that should be
// journaled.
func New(tr *transcript.Transcript, host Host, opts ...Option) (*Engine, error) {
	e := &Engine{
		tr:          tr,
		host:        host,
		sched:       timeScheduler{},
		clock:       NewClock(),
		sessions:    UUIDv7Generator{},
		queue:       newCommandQueue(),
		logger:      slog.Default(),
		settleDelay: DefaultSettleDelay,
		scrollDelay: DefaultScrollDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.host == nil {
		e.host = LogHost{Logger: e.logger}
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}

	e.session = e.sessions.Generate()

	if e.store != nil {
		doc, err := tr.Render()
		if err != nil {
			return nil, fmt.Errorf("new engine: render initial document: %w", err)
		}
		e.initial = doc
	}

	return e, nil
}

// Session returns the journal session id.
func (e *Engine) Session() string {
	return e.session
}

// Transcript returns the transcript the engine edits.
func (e *Engine) Transcript() *transcript.Transcript {
	return e.tr
}

// Submit queues cmd for the Run loop. The returned channel receives the
// result once the command has been applied.
//
// Returns ErrStopped if the engine has been stopped.
func (e *Engine) Submit(cmd command.Command) (<-chan Result, error) {
	done := make(chan Result, 1)
	if !e.queue.Enqueue(submission{cmd: cmd, done: done}) {
		return nil, ErrStopped
	}
	e.metrics.QueueDepth.Set(float64(e.queue.Len()))
	return done, nil
}

// Run applies queued commands until ctx is cancelled or Stop is called.
// Commands queued before Stop are drained first. Once ctx is cancelled the
// commands still queued are not applied; each receives a Result carrying
// ctx.Err().
//
// The ready signal is scheduled when Run starts and reaches the host at
// most once for the engine's lifetime.
//
// A failed command is logged and processing continues; retrying would make
// the journal differ from what the host asked for.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting", "session", e.session)

	stopReady := e.sched.AfterFunc(e.settleDelay, func() {
		e.readyOnce.Do(func() {
			e.logger.Debug("ready signal")
			e.host.LoadFinished(true)
		})
	})
	defer stopReady()

	for {
		if err := ctx.Err(); err != nil {
			return e.abandon(err)
		}
		if s, ok := e.queue.TryDequeue(); ok {
			e.metrics.QueueDepth.Set(float64(e.queue.Len()))
			res := e.Apply(ctx, s.cmd)
			if s.done != nil {
				s.done <- res
			}
			continue
		}

		select {
		case <-ctx.Done():
			return e.abandon(ctx.Err())

		case <-e.queue.Wait():
			// The signal channel is closed with the queue, so this also
			// fires after Stop. A leftover signal from an item already
			// dequeued lands here with the queue still open.
			if e.queue.Drained() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// abandon closes the queue and answers every submission still in it with
// err, unapplied, so no Submit caller is left waiting.
func (e *Engine) abandon(err error) error {
	e.queue.Close()
	n := 0
	for {
		s, ok := e.queue.TryDequeue()
		if !ok {
			break
		}
		if s.done != nil {
			s.done <- Result{Err: err}
		}
		n++
	}
	e.metrics.QueueDepth.Set(0)
	e.logger.Info("engine stopping: context cancelled", "abandoned", n)
	return err
}

// Stop closes the queue. Run returns once it has drained.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Apply stamps cmd with the next seq, applies it and journals the outcome.
func (e *Engine) Apply(ctx context.Context, cmd command.Command) Result {
	return e.applyAt(ctx, e.clock.Next(), cmd)
}

func (e *Engine) applyAt(ctx context.Context, seq int64, cmd command.Command) Result {
	res := Result{Seq: seq}
	kind := string(cmd.Kind)

	if err := cmd.Validate(); err != nil {
		res.Err = &RuntimeError{
			Code:    ErrCodeInvalidCommand,
			Message: err.Error(),
			Seq:     seq,
			Kind:    kind,
			Err:     err,
		}
	} else {
		applied, err := e.dispatch(cmd)
		res.Applied = applied
		if err != nil {
			res.Err = classify(seq, kind, err)
		} else if e.tr.Strict() && cmd.Kind.Mutates() {
			if violations := e.tr.Check(); len(violations) > 0 {
				for _, v := range violations {
					e.metrics.Violations.WithLabelValues(v.Rule).Inc()
				}
				res.Err = newInvariantError(seq, kind, violations)
			}
		}
	}

	switch {
	case res.Err != nil:
		e.metrics.observe(kind, OutcomeError)
		e.logger.Error("command failed",
			"seq", seq,
			"kind", kind,
			"target", cmd.Target,
			"error", res.Err,
		)
	case res.Applied:
		e.metrics.observe(kind, OutcomeApplied)
		e.logger.Debug("command applied", "seq", seq, "kind", kind, "target", cmd.Target)
	default:
		e.metrics.observe(kind, OutcomeNoop)
		e.logger.Debug("command had no target", "seq", seq, "kind", kind, "target", cmd.Target)
	}

	if err := e.journal(ctx, seq, cmd, res); err != nil {
		e.logger.Error("journal write failed", "seq", seq, "kind", kind, "error", err)
	}

	return res
}

func (e *Engine) dispatch(cmd command.Command) (bool, error) {
	tr := e.tr
	switch cmd.Kind {
	case command.KindAppend:
		return tr.Append(cmd.Content)
	case command.KindAppendTo:
		return tr.AppendTo(cmd.Target, cmd.Content)
	case command.KindReplace:
		return tr.Replace(cmd.Target, cmd.Content)
	case command.KindRemove:
		return tr.Remove(cmd.Target)
	case command.KindPromote:
		return tr.Promote(cmd.Target, cmd.Content, cmd.Consecutive)
	case command.KindUpdate:
		return tr.Update(cmd.Target, cmd.Content)
	case command.KindEmpty:
		return tr.Empty(cmd.Target)
	case command.KindAppendOutside:
		return tr.AppendOutside(cmd.Target, cmd.Content)
	case command.KindPrependOutside:
		return tr.PrependOutside(cmd.Target, cmd.Content)
	case command.KindAppendPrevious:
		return tr.AppendToPrevious(cmd.Target, cmd.Content)
	case command.KindStyle:
		return tr.Style(cmd.Target, cmd.Property, cmd.Value)
	case command.KindContextMenu:
		id, err := tr.ResolveTarget(cmd.Target)
		if err != nil || id == "" {
			return false, err
		}
		e.host.ContextMenu(id)
		return true, nil
	case command.KindScroll:
		e.scheduleScroll()
		return true, nil
	}
	return false, fmt.Errorf("%w: %q", command.ErrUnknownKind, cmd.Kind)
}

// scheduleScroll defers a scroll request. Requests are fire-and-forget and
// never coalesced.
func (e *Engine) scheduleScroll() {
	e.sched.AfterFunc(e.scrollDelay, func() {
		e.metrics.Scrolls.Inc()
		e.host.ScrollToBottom()
	})
}

func (e *Engine) journal(ctx context.Context, seq int64, cmd command.Command, res Result) error {
	if e.store == nil {
		return nil
	}

	if !e.sessionWritten {
		err := e.store.WriteSession(ctx, store.Session{
			ID:       e.session,
			ChatID:   e.tr.ChatID(),
			Document: e.initial,
			Strict:   e.tr.Strict(),
		})
		if err != nil {
			return err
		}
		e.sessionWritten = true
	}

	rec, err := command.NewRecord(e.session, seq, cmd)
	if err != nil {
		return err
	}
	rec.Applied = res.Applied
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	return e.store.WriteRecord(ctx, rec)
}
