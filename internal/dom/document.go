package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a live HTML tree.
type Document struct {
	root *html.Node
}

// Parse reads a complete HTML document.
// Missing html/head/body elements are synthesized by the parser.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// ByID returns the first element in document order whose id equals id.
func (d *Document) ByID(id string) *html.Node {
	var found *html.Node
	Walk(d.root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode {
			if v, ok := Attr(n, "id"); ok && v == id {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// Query returns the first element matching sel anywhere in the document.
// A nil node with a nil error means nothing matched.
func (d *Document) Query(sel string) (*html.Node, error) {
	return QueryFirst(d.root, sel)
}

// QueryAll returns all elements matching sel in document order.
func (d *Document) QueryAll(sel string) ([]*html.Node, error) {
	return QueryAll(d.root, sel)
}

// Contains reports whether n is attached to this document.
func (d *Document) Contains(n *html.Node) bool {
	return n != nil && IsAncestor(d.root, n)
}

// Render serializes the whole document.
func (d *Document) Render() (string, error) {
	return Render(d.root)
}

// Render serializes n and its subtree.
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return buf.String(), nil
}

// ParseFragment parses markup as the content of a template element would
// be parsed: the returned nodes are detached and may be inserted anywhere.
func ParseFragment(markup string) ([]*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	return nodes, nil
}

// Fragment is a detached container holding parsed nodes. It lets callers
// query inside freshly parsed content before it is inserted.
type Fragment struct {
	holder *html.Node
}

// NewFragment parses markup into a Fragment.
func NewFragment(markup string) (*Fragment, error) {
	nodes, err := ParseFragment(markup)
	if err != nil {
		return nil, err
	}
	holder := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		holder.AppendChild(n)
	}
	return &Fragment{holder: holder}, nil
}

// Query returns the first element inside the fragment matching sel.
func (f *Fragment) Query(sel string) (*html.Node, error) {
	return QueryFirst(f.holder, sel)
}

// Nodes returns the fragment's top-level nodes.
func (f *Fragment) Nodes() []*html.Node {
	return Children(f.holder)
}
