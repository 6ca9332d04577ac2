package transcript

import (
	"fmt"
	"strings"

	"github.com/roach88/chatdom/internal/dom"
)

// Remove removes the element matching query and keeps the grouping of
// whatever remains.
//
// A target without nested messages is detached. A group target loses
// exactly its leader: the first nested member becomes the new leader and
// the other members stay attached to it. The first member is always the one
// promoted, whichever member the caller had in mind.
//
// The anchor is re-derived afterwards unless the target was the anchor
// itself. A query that matches nothing is a no-op.
func (t *Transcript) Remove(query string) (bool, error) {
	elem, err := t.doc.Query(query)
	if err != nil {
		return false, fmt.Errorf("remove: %w", err)
	}
	if elem == nil {
		t.logger.Debug("remove: no target", "query", query)
		return false, nil
	}
	removingAnchor := strings.HasPrefix(query, selAnchor) || dom.ID(elem) == AnchorID

	g := Classify(elem)
	switch g := g.(type) {
	case Single:
		dom.Detach(g.Node)
	case Wrap:
		t.dissolveWrap(g)
	case Merged:
		t.dissolveMerged(g)
	case Ambiguous:
		if t.strict {
			return false, fmt.Errorf("remove %q: %w", query, ErrAmbiguousLayout)
		}
		t.logger.Warn("remove: group layout not recognized",
			"query", query,
			"members", len(g.Members),
		)
		return false, nil
	}

	t.logger.Debug("removed",
		"query", query,
		"layout", g.Layout().String(),
	)

	if removingAnchor {
		if t.anchor == elem {
			t.anchor = nil
		}
		t.anchorRemoved = t.anchorNode() == nil
		return true, nil
	}
	t.repositionAnchor()
	return true, nil
}

// dissolveWrap replaces the wrapper with its first member, which takes the
// remaining members as children and stops being consecutive.
func (t *Transcript) dissolveWrap(g Wrap) {
	dom.RemoveClass(g.Head, ClassConsecutive)
	dom.Append(g.Head, g.Rest...)
	dom.ReplaceWith(g.Node, g.Head)
}

// dissolveMerged keeps the group node and turns it into the first member:
// it takes the member's id, time and content, the member's own node is
// dropped, and the remaining members are appended to the group node.
func (t *Transcript) dissolveMerged(g Merged) {
	dom.SetAttr(g.Node, "id", dom.ID(g.Head))

	if g.Time != nil {
		headTime := mustQueryFirst(g.Head, selTime)
		if headTime != nil && headTime != g.Time {
			dom.ReplaceWith(g.Time, headTime)
		}
	}

	dom.ReplaceChildren(g.Content, dom.ElementChildren(g.Head)...)
	dom.Detach(g.Head)
	dom.Append(g.Node, g.Rest...)
}
