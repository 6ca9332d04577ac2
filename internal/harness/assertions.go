package harness

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/roach88/chatdom/internal/dom"
	"github.com/roach88/chatdom/internal/testutil"
	"github.com/roach88/chatdom/internal/transcript"
)

// AssertionContext is what assertions are evaluated against.
type AssertionContext struct {
	Transcript *transcript.Transcript
	Host       *testutil.RecordingHost
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Chat     string // rendered chat container for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Chat != "" {
		fmt.Fprintf(&buf, "\nChat:\n  %s\n", e.Chat)
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertMessageOrder:
			err = assertIDs(actx, a.Type, a.IDs, actx.Transcript.MessageIDs())
		case AssertMessageCount:
			if got := len(actx.Transcript.MessageIDs()); got != a.Count {
				err = failure(actx, a.Type, fmt.Sprintf("%d messages", a.Count), fmt.Sprintf("%d messages", got))
			}
		case AssertTopLevel:
			chat := actx.Transcript.Document().ByID(actx.Transcript.ChatID())
			err = assertIDs(actx, a.Type, a.IDs, messageChildren(chat, false))
		case AssertMembers:
			err = assertMembers(actx, a)
		case AssertAnchor:
			err = assertAnchor(actx, a)
		case AssertConsecutive:
			err = assertConsecutive(actx, a)
		case AssertInvariants:
			if v := actx.Transcript.Check(); len(v) > 0 {
				err = failure(actx, a.Type, "no violations", fmt.Sprint(v))
			}
		case AssertContextMenu:
			err = assertIDs(actx, a.Type, a.IDs, actx.Host.ContextMenus())
		case AssertScrolls:
			if got := actx.Host.Scrolls(); got != a.Count {
				err = failure(actx, a.Type, fmt.Sprintf("%d scrolls", a.Count), fmt.Sprintf("%d scrolls", got))
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

func failure(actx *AssertionContext, typ, expected, actual string) error {
	chat, _ := actx.Transcript.RenderChat()
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Chat: chat}
}

func assertIDs(actx *AssertionContext, typ string, want, got []string) error {
	if len(want) == 0 && len(got) == 0 {
		return nil
	}
	if !slices.Equal(want, got) {
		return failure(actx, typ, fmt.Sprint(want), fmt.Sprint(got))
	}
	return nil
}

func assertMembers(actx *AssertionContext, a Assertion) error {
	group := actx.Transcript.Document().ByID(a.ID)
	if group == nil {
		return failure(actx, a.Type, fmt.Sprintf("group %s", a.ID), "not found")
	}
	return assertIDs(actx, a.Type, a.IDs, messageChildren(group, true))
}

func assertAnchor(actx *AssertionContext, a Assertion) error {
	anchor := actx.Transcript.Anchor()
	if a.Placement == PlacementNone {
		if anchor != nil {
			return failure(actx, a.Type, "no anchor", describeAnchor(anchor))
		}
		return nil
	}
	if anchor == nil {
		return failure(actx, a.Type, fmt.Sprintf("anchor %s %s", a.Placement, a.Of), "no anchor")
	}

	var ref *html.Node
	switch a.Placement {
	case PlacementInside:
		ref = anchor.Parent
	case PlacementAfter:
		ref = dom.PreviousElementSibling(anchor)
	}
	if ref == nil || dom.ID(ref) != a.Of {
		return failure(actx, a.Type, fmt.Sprintf("anchor %s %s", a.Placement, a.Of), describeAnchor(anchor))
	}
	return nil
}

func describeAnchor(anchor *html.Node) string {
	var parts []string
	if anchor.Parent != nil {
		parts = append(parts, "inside "+dom.ID(anchor.Parent))
	}
	if prev := dom.PreviousElementSibling(anchor); prev != nil {
		parts = append(parts, "after "+dom.ID(prev))
	}
	return "anchor " + strings.Join(parts, ", ")
}

func assertConsecutive(actx *AssertionContext, a Assertion) error {
	n := actx.Transcript.Document().ByID(a.ID)
	if n == nil {
		return failure(actx, a.Type, fmt.Sprintf("message %s", a.ID), "not found")
	}
	if got := dom.HasClass(n, transcript.ClassConsecutive); got != *a.Value {
		return failure(actx, a.Type,
			fmt.Sprintf("%s consecutive=%t", a.ID, *a.Value),
			fmt.Sprintf("%s consecutive=%t", a.ID, got))
	}
	return nil
}

// messageChildren returns the ids of the outermost messages below n. With
// nested set, messages wrapped in non-message elements are included.
func messageChildren(n *html.Node, nested bool) []string {
	var out []string
	if n == nil {
		return out
	}
	dom.Walk(n, func(c *html.Node) bool {
		if c == n {
			return true
		}
		if c.Type != html.ElementNode {
			return false
		}
		if id := dom.ID(c); strings.HasPrefix(id, transcript.MessagePrefix) {
			out = append(out, id)
			return false
		}
		return nested
	})
	return out
}
