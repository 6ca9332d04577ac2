package transcript

import (
	"github.com/roach88/chatdom/internal/dom"
)

// EnsureAnchor creates the anchor if it is missing.
//
// The anchor goes after the last message in document order (the tail):
// as the tail's next sibling when the wrap layout is active anywhere in the
// document and the tail is consecutive, otherwise as the tail's last child.
// Nothing happens when the anchor exists or there are no messages.
//
// Returns true when an anchor was created.
func (t *Transcript) EnsureAnchor() bool {
	if t.anchorNode() != nil {
		t.anchorRemoved = false
		return false
	}

	messages := t.Messages()
	if len(messages) == 0 {
		return false
	}
	tail := messages[len(messages)-1]

	anchor := dom.NewElement("span", "id", AnchorID)
	outside := t.wrapLayoutActive() && dom.HasClass(tail, ClassConsecutive)
	if outside {
		dom.InsertAfter(tail, anchor)
	} else {
		dom.Append(tail, anchor)
	}
	t.anchor = anchor
	t.anchorRemoved = false

	t.logger.Debug("anchor added",
		"tail", dom.ID(tail),
		"outside", outside,
	)
	return true
}

// repositionAnchor drops the current anchor and derives it again from the
// tail. Used after edits that change the tail's structure.
func (t *Transcript) repositionAnchor() {
	if a := t.anchorNode(); a != nil {
		dom.Detach(a)
		t.anchor = nil
	}
	t.EnsureAnchor()
}
