package versioning

import "git.home.luguber.info/inful/sitemigrate/internal/dom"

const (
	markerSelector = "meta[name=generator]"
	// MarkerPrefix precedes the version in the generator meta content.
	MarkerPrefix = "Site Editor v"
)

// ReadMarker returns the version recorded in the generator meta tag. It returns
// 0.0.0 when the tag is absent or unreadable and never modifies the document.
func ReadMarker(doc *dom.Document) Tuple {
	meta := doc.SelectOne(markerSelector)
	if meta == nil {
		return Tuple{}
	}
	t, ok := ExtractTuple(dom.Attr(meta, "content"))
	if !ok {
		return Tuple{}
	}
	return t
}

// StampMarker writes v into the generator meta tag, creating the tag in <head>
// when missing. It reports whether the document changed.
func StampMarker(doc *dom.Document, v Tuple) bool {
	content := MarkerPrefix + v.String()
	meta := doc.SelectOne(markerSelector)
	if meta == nil {
		head := doc.Head()
		if head == nil {
			return false
		}
		meta = dom.NewElement("meta", "name", "generator", "content", content)
		head.InsertBefore(meta, head.FirstChild)
		return true
	}
	if dom.Attr(meta, "content") == content {
		return false
	}
	dom.SetAttr(meta, "content", content)
	return true
}
