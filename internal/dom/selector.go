package dom

import (
	"fmt"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

var selectorCache sync.Map // string -> cascadia.Selector

// Compile compiles a CSS selector, caching the result by source text.
func Compile(sel string) (cascadia.Selector, error) {
	if cached, ok := selectorCache.Load(sel); ok {
		return cached.(cascadia.Selector), nil
	}
	compiled, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", sel, err)
	}
	selectorCache.Store(sel, compiled)
	return compiled, nil
}

// QueryFirst returns the first descendant of n, in document order, that
// matches sel. n itself is never matched.
func QueryFirst(n *html.Node, sel string) (*html.Node, error) {
	s, err := Compile(sel)
	if err != nil {
		return nil, err
	}
	var found *html.Node
	walkDescendants(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c.Type == html.ElementNode && s.Match(c) {
			found = c
			return false
		}
		return true
	})
	return found, nil
}

// QueryAll returns every descendant of n that matches sel, in document order.
func QueryAll(n *html.Node, sel string) ([]*html.Node, error) {
	s, err := Compile(sel)
	if err != nil {
		return nil, err
	}
	var out []*html.Node
	walkDescendants(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && s.Match(c) {
			out = append(out, c)
		}
		return true
	})
	return out, nil
}

// Matches reports whether n itself matches sel.
func Matches(n *html.Node, sel string) (bool, error) {
	s, err := Compile(sel)
	if err != nil {
		return false, err
	}
	return n != nil && n.Type == html.ElementNode && s.Match(n), nil
}

// Closest returns n or its nearest ancestor matching sel, like
// Element.closest.
func Closest(n *html.Node, sel string) (*html.Node, error) {
	s, err := Compile(sel)
	if err != nil {
		return nil, err
	}
	for c := n; c != nil; c = c.Parent {
		if c.Type == html.ElementNode && s.Match(c) {
			return c, nil
		}
	}
	return nil, nil
}

// Walk visits n and its descendants depth first in document order.
// Returning false from fn skips the node's subtree; it does not stop the
// walk of its siblings.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	walkDescendants(n, fn)
}

func walkDescendants(n *html.Node, fn func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; {
		// Capture next first so fn may detach c.
		next := c.NextSibling
		if fn(c) {
			walkDescendants(c, fn)
		}
		c = next
	}
}
