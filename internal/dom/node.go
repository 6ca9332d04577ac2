package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NewElement creates a detached element with the given tag and attributes,
// given as alternating key/value pairs.
func NewElement(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// Attr returns the value of attribute key and whether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// ID returns the id attribute of n, or "" when absent.
func ID(n *html.Node) string {
	v, _ := Attr(n, "id")
	return v
}

// SetAttr sets attribute key on n, replacing any existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Classes returns the whitespace separated tokens of the class attribute.
func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

// HasClass reports whether class is one of n's class tokens.
func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// RemoveClass removes every occurrence of class from n's class list.
// The attribute is kept, possibly empty, as classList.remove does.
func RemoveClass(n *html.Node, class string) {
	if _, ok := Attr(n, "class"); !ok {
		return
	}
	var kept []string
	for _, c := range Classes(n) {
		if c != class {
			kept = append(kept, c)
		}
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// SetStyleProperty sets one declaration in n's inline style attribute.
func SetStyleProperty(n *html.Node, property, value string) {
	style, _ := Attr(n, "style")
	var decls []string
	replaced := false
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, _, _ := strings.Cut(decl, ":")
		if strings.EqualFold(strings.TrimSpace(name), property) {
			if !replaced {
				decls = append(decls, property+": "+value)
				replaced = true
			}
			continue
		}
		decls = append(decls, decl)
	}
	if !replaced {
		decls = append(decls, property+": "+value)
	}
	SetAttr(n, "style", strings.Join(decls, "; ")+";")
}

// Children returns the child nodes of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// ElementChildren returns the element children of n, like Element.children.
func ElementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// PreviousElementSibling returns the nearest preceding element sibling.
func PreviousElementSibling(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// IsAncestor reports whether a is n or an ancestor of n.
func IsAncestor(a, n *html.Node) bool {
	for c := n; c != nil; c = c.Parent {
		if c == a {
			return true
		}
	}
	return false
}

// Detach removes n from its parent. Detached nodes are left untouched.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Append moves nodes to the end of parent's children, in order.
func Append(parent *html.Node, nodes ...*html.Node) {
	for _, n := range nodes {
		if n == nil || IsAncestor(n, parent) {
			continue
		}
		Detach(n)
		parent.AppendChild(n)
	}
}

// InsertBefore moves nodes, in order, in front of ref.
// Nothing happens when ref is detached.
func InsertBefore(ref *html.Node, nodes ...*html.Node) {
	parent := ref.Parent
	if parent == nil {
		return
	}
	for _, n := range nodes {
		if n == nil || n == ref || IsAncestor(n, parent) {
			continue
		}
		Detach(n)
		parent.InsertBefore(n, ref)
	}
}

// InsertAfter moves nodes, in order, right after ref.
// Nothing happens when ref is detached.
func InsertAfter(ref *html.Node, nodes ...*html.Node) {
	parent := ref.Parent
	if parent == nil {
		return
	}
	moving := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil || n == ref || IsAncestor(n, parent) {
			continue
		}
		Detach(n)
		moving = append(moving, n)
	}
	// ref.NextSibling is read after detaching, since one of the moved nodes
	// may have been it.
	next := ref.NextSibling
	for _, n := range moving {
		parent.InsertBefore(n, next)
	}
}

// ReplaceWith puts nodes where old is and detaches old.
// Nodes living inside old are moved out before old is removed.
func ReplaceWith(old *html.Node, nodes ...*html.Node) {
	if old.Parent == nil {
		return
	}
	InsertBefore(old, nodes...)
	Detach(old)
}

// ReplaceChildren removes all children of parent and appends nodes.
func ReplaceChildren(parent *html.Node, nodes ...*html.Node) {
	keep := make(map[*html.Node]bool, len(nodes))
	for _, n := range nodes {
		keep[n] = true
	}
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		if !keep[c] {
			parent.RemoveChild(c)
		}
		c = next
	}
	// Nodes that were already children are re-appended to restore the
	// requested order.
	Append(parent, nodes...)
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}
