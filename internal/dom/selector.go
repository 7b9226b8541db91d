package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Supported selector subset:
//   - tag: "script", "meta"
//   - .class / multiple classes: ".editable-style.section-element"
//   - #id: "#site-data-island"
//   - [attr], [attr=val]: "[data-static-asset]", "meta[name=generator]"
//   - combinations of the above: "a[data-editor-type=page]"
//   - descendant combinator (space): "head script"
//   - selector lists (comma): "style, script"

type attrMatch struct {
	key    string
	val    string
	hasVal bool
}

type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrs   []attrMatch
}

// SelectUnder returns the elements below root matching selector, in document
// order and without duplicates.
func SelectUnder(root *html.Node, selector string) []*html.Node {
	var out []*html.Node
	seen := make(map[*html.Node]bool)
	for _, group := range strings.Split(selector, ",") {
		for _, n := range selectChain(root, strings.Fields(group)) {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	if len(strings.Split(selector, ",")) > 1 {
		out = documentOrder(root, seen)
	}
	return out
}

func selectChain(root *html.Node, parts []string) []*html.Node {
	if len(parts) == 0 {
		return nil
	}
	matches := FindAllUnder(root, matcher(parseSimpleSelector(parts[0])))
	for _, part := range parts[1:] {
		m := matcher(parseSimpleSelector(part))
		seen := make(map[*html.Node]bool)
		var next []*html.Node
		for _, parent := range matches {
			for _, n := range FindAllUnder(parent, m) {
				if !seen[n] {
					seen[n] = true
					next = append(next, n)
				}
			}
		}
		matches = next
	}
	return matches
}

func documentOrder(root *html.Node, set map[*html.Node]bool) []*html.Node {
	return FindAllUnder(root, func(n *html.Node) bool { return set[n] })
}

// Matches reports whether n matches a single compound selector (no combinators).
func Matches(n *html.Node, selector string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return matcher(parseSimpleSelector(strings.TrimSpace(selector)))(n)
}

func matcher(s simpleSelector) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if s.tag != "" && s.tag != "*" && n.Data != s.tag {
			return false
		}
		if s.id != "" && Attr(n, "id") != s.id {
			return false
		}
		for _, c := range s.classes {
			if !HasClass(n, c) {
				return false
			}
		}
		for _, a := range s.attrs {
			val, ok := LookupAttr(n, a.key)
			if !ok || (a.hasVal && val != a.val) {
				return false
			}
		}
		return true
	}
}

func parseSimpleSelector(sel string) simpleSelector {
	var s simpleSelector
	i := 0
	readIdent := func() string {
		start := i
		for i < len(sel) && !strings.ContainsRune(".#[", rune(sel[i])) {
			i++
		}
		return sel[start:i]
	}

	s.tag = strings.ToLower(readIdent())
	for i < len(sel) {
		switch sel[i] {
		case '.':
			i++
			if c := readIdent(); c != "" {
				s.classes = append(s.classes, c)
			}
		case '#':
			i++
			s.id = readIdent()
		case '[':
			end := strings.IndexByte(sel[i:], ']')
			if end < 0 {
				end = len(sel) - i
			}
			body := sel[i+1 : i+end]
			i += end + 1
			if eq := strings.IndexByte(body, '='); eq >= 0 {
				s.attrs = append(s.attrs, attrMatch{
					key:    strings.TrimSpace(body[:eq]),
					val:    strings.Trim(strings.TrimSpace(body[eq+1:]), `"'`),
					hasVal: true,
				})
			} else {
				s.attrs = append(s.attrs, attrMatch{key: strings.TrimSpace(body)})
			}
		default:
			i++
		}
	}
	return s
}
