package testutil

import "sync"

// RecordingHost records every notification it receives.
type RecordingHost struct {
	mu           sync.Mutex
	contextMenus []string
	loads        []bool
	scrolls      int
}

// NewRecordingHost creates an empty recorder.
func NewRecordingHost() *RecordingHost {
	return &RecordingHost{}
}

// ContextMenu records id.
func (h *RecordingHost) ContextMenu(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.contextMenus = append(h.contextMenus, id)
}

// LoadFinished records the ready signal.
func (h *RecordingHost) LoadFinished(ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loads = append(h.loads, ok)
}

// ScrollToBottom counts the request.
func (h *RecordingHost) ScrollToBottom() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scrolls++
}

// ContextMenus returns the ids received so far.
func (h *RecordingHost) ContextMenus() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.contextMenus...)
}

// Loads returns the ready signals received so far.
func (h *RecordingHost) Loads() []bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]bool(nil), h.loads...)
}

// Scrolls returns how many scroll requests arrived.
func (h *RecordingHost) Scrolls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scrolls
}
