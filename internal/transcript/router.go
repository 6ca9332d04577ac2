package transcript

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/roach88/chatdom/internal/dom"
)

// directLevels is how many nodes, starting at the event target, are checked
// for any id before falling back to the message ancestor search. Interactive
// content sits at most two levels inside a message in the merged layout.
const directLevels = 3

// ResolveMessageID returns the id a context-menu event on target refers to.
//
// The target, its parent and its grandparent are checked in that order and
// the first id found is returned as is. After that the nearest ancestor
// whose id starts with "message-" wins. ErrNoMessageAncestor is returned
// when there is none.
func ResolveMessageID(target *html.Node) (string, error) {
	if target == nil {
		return "", ErrNoMessageAncestor
	}

	n := target
	for i := 0; i < directLevels && n != nil; i++ {
		if n.Type == html.ElementNode {
			if id, ok := dom.Attr(n, "id"); ok {
				return id, nil
			}
		}
		n = n.Parent
	}

	msg := mustClosest(target, selMessage)
	if msg == nil {
		return "", ErrNoMessageAncestor
	}
	return dom.ID(msg), nil
}

// ResolveTarget resolves the message id for the first element matching
// query. A query that matches nothing returns "" and no error.
func (t *Transcript) ResolveTarget(query string) (string, error) {
	target, err := t.doc.Query(query)
	if err != nil {
		return "", fmt.Errorf("resolve target: %w", err)
	}
	if target == nil {
		return "", nil
	}
	id, err := ResolveMessageID(target)
	if err != nil {
		return "", fmt.Errorf("resolve target %q: %w", query, err)
	}
	return id, nil
}

func mustClosest(n *html.Node, sel string) *html.Node {
	out, err := dom.Closest(n, sel)
	if err != nil {
		panic(fmt.Sprintf("transcript: selector %q: %v", sel, err))
	}
	return out
}
