package engine

import (
	"log/slog"
	"time"
)

// Host receives the engine's outbound notifications.
type Host interface {
	// ContextMenu is called with the message id a context-menu event
	// resolved to.
	ContextMenu(id string)

	// LoadFinished is the ready signal, sent once per Run.
	LoadFinished(ok bool)

	// ScrollToBottom asks the host to scroll to the end of the transcript.
	ScrollToBottom()
}

// LogHost is a Host that only logs. Used by the CLI.
type LogHost struct {
	Logger *slog.Logger
}

func (h LogHost) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// ContextMenu logs the resolved id.
func (h LogHost) ContextMenu(id string) {
	h.logger().Info("context menu", "id", id)
}

// LoadFinished logs the ready signal.
func (h LogHost) LoadFinished(ok bool) {
	h.logger().Info("load finished", "ok", ok)
}

// ScrollToBottom logs the scroll request.
func (h LogHost) ScrollToBottom() {
	h.logger().Debug("scroll to bottom")
}

// Scheduler runs f once after d. The returned function cancels the call if
// it has not happened yet and reports whether it did so.
// Implemented by timeScheduler and testutil.ManualScheduler.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// timeScheduler schedules on real timers.
type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
