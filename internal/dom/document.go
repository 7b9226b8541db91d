// Package dom is the markup query and mutation layer the migration engine works on.
// It wraps golang.org/x/net/html trees with the handful of selection, attribute and
// class-token operations the engine needs.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML document.
type Document struct {
	root *html.Node
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString parses an HTML document held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Render serializes the document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String serializes the document, returning an empty string on render failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Clone returns a deep copy that shares no nodes with d.
func (d *Document) Clone() *Document {
	return &Document{root: cloneNode(d.root)}
}

// HTML returns the <html> element.
func (d *Document) HTML() *html.Node {
	return d.firstByAtom(atom.Html)
}

// Head returns the <head> element.
func (d *Document) Head() *html.Node {
	return d.firstByAtom(atom.Head)
}

// Body returns the <body> element.
func (d *Document) Body() *html.Node {
	return d.firstByAtom(atom.Body)
}

func (d *Document) firstByAtom(a atom.Atom) *html.Node {
	nodes := d.FindAll(func(n *html.Node) bool { return n.DataAtom == a })
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// FindAll returns every element node under the document root matching pred, in
// document order.
func (d *Document) FindAll(pred func(*html.Node) bool) []*html.Node {
	return FindAllUnder(d.root, pred)
}

// Select returns the elements matching a simple selector (see selector.go).
func (d *Document) Select(selector string) []*html.Node {
	return SelectUnder(d.root, selector)
}

// SelectOne returns the first element matching selector, or nil.
func (d *Document) SelectOne(selector string) *html.Node {
	nodes := d.Select(selector)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// FindAllUnder walks the subtree rooted at root (root excluded) and returns the
// element nodes matching pred.
func FindAllUnder(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && pred(c) {
				results = append(results, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return results
}

func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneNode(child))
	}
	return c
}
