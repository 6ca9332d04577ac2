package transcript

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/roach88/chatdom/internal/dom"
)

// The edits below mirror the host's remaining helper calls. Each treats a
// target that does not resolve as a no-op and reports whether it changed
// the tree. After a change the anchor is recreated if it went missing.

// Append adds a rendered message to the end of the chat container. The
// old anchor is removed first; content normally brings its own.
//
// The container is looked up by id, not by selector. When it is missing, or
// content does not parse, the tree is left untouched.
func (t *Transcript) Append(content string) (bool, error) {
	chat := t.doc.ByID(t.chatID)
	if chat == nil {
		t.logger.Debug("append: no chat container", "id", t.chatID)
		return false, nil
	}
	nodes, err := parseContent(content)
	if err != nil {
		return false, fmt.Errorf("append: %w", err)
	}

	if a := t.anchorNode(); a != nil {
		dom.Detach(a)
		t.anchor = nil
	}
	dom.Append(chat, nodes...)
	t.logger.Debug("append", "id", t.chatID, "nodes", len(nodes))
	t.EnsureAnchor()
	return true, nil
}

// AppendTo appends content as the last children of the element matching
// query.
func (t *Transcript) AppendTo(query, content string) (bool, error) {
	return t.editQuery("append_to", query, content, func(elem *html.Node, nodes []*html.Node) {
		dom.Append(elem, nodes...)
	})
}

// Replace puts content where the element matching query is.
func (t *Transcript) Replace(query, content string) (bool, error) {
	return t.editQuery("replace", query, content, func(elem *html.Node, nodes []*html.Node) {
		dom.ReplaceWith(elem, nodes...)
	})
}

// Update replaces the children of the element matching query with content.
func (t *Transcript) Update(query, content string) (bool, error) {
	return t.editQuery("update", query, content, func(elem *html.Node, nodes []*html.Node) {
		dom.RemoveChildren(elem)
		dom.Append(elem, nodes...)
	})
}

// Empty removes every child of the element matching query.
func (t *Transcript) Empty(query string) (bool, error) {
	return t.editQuery("empty", query, "", func(elem *html.Node, _ []*html.Node) {
		dom.RemoveChildren(elem)
	})
}

// AppendOutside inserts content right after the element with the given id.
func (t *Transcript) AppendOutside(id, content string) (bool, error) {
	return t.editID("append_outside", id, content, func(elem *html.Node, nodes []*html.Node) bool {
		dom.InsertAfter(elem, nodes...)
		return true
	})
}

// PrependOutside inserts content right before the element with the given id.
func (t *Transcript) PrependOutside(id, content string) (bool, error) {
	return t.editID("prepend_outside", id, content, func(elem *html.Node, nodes []*html.Node) bool {
		dom.InsertBefore(elem, nodes...)
		return true
	})
}

// AppendToPrevious appends content into the element sibling preceding the
// element with the given id.
func (t *Transcript) AppendToPrevious(id, content string) (bool, error) {
	return t.editID("append_previous", id, content, func(elem *html.Node, nodes []*html.Node) bool {
		prev := dom.PreviousElementSibling(elem)
		if prev == nil {
			return false
		}
		dom.Append(prev, nodes...)
		return true
	})
}

// Style sets one inline style property on the element matching query.
func (t *Transcript) Style(query, property, value string) (bool, error) {
	elem, err := t.doc.Query(query)
	if err != nil {
		return false, fmt.Errorf("style: %w", err)
	}
	if elem == nil {
		t.logger.Debug("style: no target", "query", query)
		return false, nil
	}
	dom.SetStyleProperty(elem, property, value)
	return true, nil
}

func (t *Transcript) editQuery(op, query, content string, apply func(*html.Node, []*html.Node)) (bool, error) {
	elem, err := t.doc.Query(query)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if elem == nil {
		t.logger.Debug(op+": no target", "query", query)
		return false, nil
	}
	nodes, err := parseContent(content)
	if err != nil {
		return false, fmt.Errorf("%s %q: %w", op, query, err)
	}
	apply(elem, nodes)
	t.logger.Debug(op, "query", query, "nodes", len(nodes))
	t.EnsureAnchor()
	return true, nil
}

func (t *Transcript) editID(op, id, content string, apply func(*html.Node, []*html.Node) bool) (bool, error) {
	elem := t.doc.ByID(id)
	if elem == nil {
		t.logger.Debug(op+": no target", "id", id)
		return false, nil
	}
	nodes, err := parseContent(content)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", op, id, err)
	}
	if !apply(elem, nodes) {
		t.logger.Debug(op+": no sibling", "id", id)
		return false, nil
	}
	t.logger.Debug(op, "id", id, "nodes", len(nodes))
	t.EnsureAnchor()
	return true, nil
}

func parseContent(content string) ([]*html.Node, error) {
	if content == "" {
		return nil, nil
	}
	return dom.ParseFragment(content)
}
