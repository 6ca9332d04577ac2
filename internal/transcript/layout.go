package transcript

import (
	"golang.org/x/net/html"
)

// Layout names the physical arrangement of a group.
type Layout int

const (
	LayoutNone Layout = iota
	LayoutWrap
	LayoutMerged
	LayoutAmbiguous
)

func (l Layout) String() string {
	switch l {
	case LayoutWrap:
		return "wrap"
	case LayoutMerged:
		return "merged"
	case LayoutAmbiguous:
		return "ambiguous"
	default:
		return "none"
	}
}

// Group is the classified shape of a removal target. It is one of Single,
// Wrap, Merged or Ambiguous.
type Group interface {
	Layout() Layout
	Root() *html.Node
}

// Single is a node with no nested messages.
type Single struct {
	Node *html.Node
}

// Wrap is a wrap-layout group. Head is the first nested member and Rest
// the remaining members, in document order.
type Wrap struct {
	Node *html.Node
	Head *html.Node
	Rest []*html.Node
}

// Merged is a merged-layout group. Content is the flattened "x-message"
// element and Time the group's first "x-time" element, which may be nil.
type Merged struct {
	Node    *html.Node
	Content *html.Node
	Time    *html.Node
	Head    *html.Node
	Rest    []*html.Node
}

// Ambiguous is a group carrying neither layout marker.
type Ambiguous struct {
	Node    *html.Node
	Members []*html.Node
}

func (g Single) Layout() Layout    { return LayoutNone }
func (g Wrap) Layout() Layout      { return LayoutWrap }
func (g Merged) Layout() Layout    { return LayoutMerged }
func (g Ambiguous) Layout() Layout { return LayoutAmbiguous }

func (g Single) Root() *html.Node    { return g.Node }
func (g Wrap) Root() *html.Node      { return g.Node }
func (g Merged) Root() *html.Node    { return g.Node }
func (g Ambiguous) Root() *html.Node { return g.Node }

// Classify inspects n once and returns its group shape. The wrap marker
// wins when both markers are present.
func Classify(n *html.Node) Group {
	members := mustQueryAll(n, selMessage)
	if len(members) == 0 {
		return Single{Node: n}
	}
	head, rest := members[0], members[1:]

	if mustQueryFirst(n, selWrap) != nil {
		return Wrap{Node: n, Head: head, Rest: rest}
	}
	if content := mustQueryFirst(n, selMerged); content != nil {
		return Merged{
			Node:    n,
			Content: content,
			Time:    mustQueryFirst(n, selTime),
			Head:    head,
			Rest:    rest,
		}
	}
	return Ambiguous{Node: n, Members: members}
}

// wrapLayoutActive reports whether any wrap marker exists in the document.
func (t *Transcript) wrapLayoutActive() bool {
	return mustQueryFirst(t.doc.Root(), selWrap) != nil
}
