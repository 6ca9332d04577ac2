package transcript

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/roach88/chatdom/internal/dom"
)

// Promote merges a newly arrived consecutive message into the message or
// group whose id is existingID.
//
// content is the replacement markup for the existing node and carries a
// placeholder (an element whose id starts with "insert"). consecutive is
// the new message's markup, already flagged consecutive. The placeholder is
// replaced by the new message followed by the existing node's nested
// members, if any, and the existing node is then replaced by content.
// The anchor is always re-derived afterwards.
//
// An unknown existingID is a no-op. content without a placeholder fails
// with ErrNoPlaceholder and leaves the tree untouched.
func (t *Transcript) Promote(existingID, content, consecutive string) (bool, error) {
	elem := t.doc.ByID(existingID)
	if elem == nil {
		t.logger.Debug("promote: no target", "id", existingID)
		return false, nil
	}

	shell, err := dom.NewFragment(content)
	if err != nil {
		return false, fmt.Errorf("promote %s: %w", existingID, err)
	}
	incoming, err := dom.NewFragment(consecutive)
	if err != nil {
		return false, fmt.Errorf("promote %s: %w", existingID, err)
	}

	marker, err := shell.Query(selPlaceholder)
	if err != nil {
		return false, fmt.Errorf("promote %s: %w", existingID, err)
	}
	if marker == nil {
		return false, fmt.Errorf("promote %s: %w", existingID, ErrNoPlaceholder)
	}

	members := mustQueryAll(elem, selMessage)
	splice := make([]*html.Node, 0, len(members)+1)
	splice = append(splice, incoming.Nodes()...)
	splice = append(splice, members...)

	dom.ReplaceWith(marker, splice...)
	dom.ReplaceWith(elem, shell.Nodes()...)

	t.logger.Debug("promoted",
		"id", existingID,
		"members", len(members),
	)

	t.repositionAnchor()
	return true, nil
}
