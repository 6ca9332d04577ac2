package transcript

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/roach88/chatdom/internal/dom"
)

// Rule names reported by Check.
const (
	RuleAnchorUnique      = "anchor_unique"
	RuleAnchorPresent     = "anchor_present"
	RuleUniqueIDs         = "unique_ids"
	RuleMemberConsecutive = "member_consecutive"
	RuleLeaderConsecutive = "leader_consecutive"
)

// Violation is one broken tree invariant.
type Violation struct {
	Rule   string `json:"rule" yaml:"rule"`
	NodeID string `json:"node_id,omitempty" yaml:"node_id,omitempty"`
	Detail string `json:"detail" yaml:"detail"`
}

func (v Violation) String() string {
	if v.NodeID != "" {
		return fmt.Sprintf("%s: %s (%s)", v.Rule, v.Detail, v.NodeID)
	}
	return fmt.Sprintf("%s: %s", v.Rule, v.Detail)
}

// Check verifies the transcript invariants and returns every violation.
// An empty result means the tree is consistent.
//
// Removing the anchor itself is terminal for that call, so a missing anchor
// is not reported until some edit has re-derived it.
func (t *Transcript) Check() []Violation {
	violations := Check(t.doc)
	if !t.anchorRemoved || t.anchorNode() != nil {
		return violations
	}
	out := violations[:0]
	for _, v := range violations {
		if v.Rule != RuleAnchorPresent {
			out = append(out, v)
		}
	}
	return out
}

// Check verifies the transcript invariants of doc.
//
// A top-level message flagged consecutive is accepted: hosts append such a
// message before promoting it into its group.
func Check(doc *dom.Document) []Violation {
	var out []Violation

	anchors := 0
	seen := make(map[string]int)
	dom.Walk(doc.Root(), func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if id, ok := dom.Attr(n, "id"); ok && id != "" {
			seen[id]++
			if id == AnchorID {
				anchors++
			}
		}
		return true
	})

	if anchors > 1 {
		out = append(out, Violation{
			Rule:   RuleAnchorUnique,
			NodeID: AnchorID,
			Detail: fmt.Sprintf("%d anchors present", anchors),
		})
	}

	messages := mustQueryAll(doc.Root(), selMessage)
	if len(messages) > 0 && anchors == 0 {
		out = append(out, Violation{
			Rule:   RuleAnchorPresent,
			Detail: fmt.Sprintf("%d messages and no anchor", len(messages)),
		})
	}

	for _, m := range messages {
		id := dom.ID(m)
		if seen[id] > 1 {
			out = append(out, Violation{
				Rule:   RuleUniqueIDs,
				NodeID: id,
				Detail: fmt.Sprintf("id used %d times", seen[id]),
			})
			// Report each duplicate once.
			seen[id] = 1
		}

		nested := hasMessageAncestor(m)
		consecutive := dom.HasClass(m, ClassConsecutive)
		switch {
		case nested && !consecutive:
			out = append(out, Violation{
				Rule:   RuleMemberConsecutive,
				NodeID: id,
				Detail: "group member is not flagged consecutive",
			})
		case !nested && consecutive && len(mustQueryAll(m, selMessage)) > 0:
			out = append(out, Violation{
				Rule:   RuleLeaderConsecutive,
				NodeID: id,
				Detail: "group leader is flagged consecutive",
			})
		}
	}

	return out
}

func hasMessageAncestor(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if ok, _ := dom.Matches(p, selMessage); ok {
			return true
		}
	}
	return false
}
