package migration

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/island"
	"git.home.luguber.info/inful/sitemigrate/internal/legacy"
	"git.home.luguber.info/inful/sitemigrate/internal/logfields"
)

const (
	classMenuButton = "menu-button"
	classNavToggle  = "nav-toggle"
	classHideDesk   = "hide-on-desktop"
	typeSuffix      = "-element"
)

// relabelNavToggle replaces the legacy menu-button class with the nav-toggle
// classes. The toggle is only shown on mobile.
func relabelNavToggle(sc *StepContext) ([]string, error) {
	nodes := sc.Doc.Select("." + classMenuButton)
	for _, n := range nodes {
		dom.RemoveClass(n, classMenuButton)
		dom.AddClass(n, classNavToggle)
		dom.AddClass(n, classHideDesk)
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return []string{fmt.Sprintf("Relabelled %s as mobile-only menu toggle.", plural(len(nodes), "navigation button"))}, nil
}

// appendTypeSuffix renames element type values such as "text" to "text-element".
func appendTypeSuffix(sc *StepContext) ([]string, error) {
	changed := 0
	for _, n := range sc.Doc.Select("[" + legacy.AttrType + "]") {
		v := strings.TrimSpace(dom.Attr(n, legacy.AttrType))
		if v == legacy.PageType || strings.HasSuffix(v, typeSuffix) {
			continue
		}
		if _, ok := legacy.ParseType(v); !ok {
			continue
		}
		dom.SetAttr(n, legacy.AttrType, v+typeSuffix)
		changed++
	}
	if changed == 0 {
		return nil, nil
	}
	return []string{fmt.Sprintf("Updated the type name of %s.", plural(changed, "element"))}, nil
}

// standardLinks moves legacy data-editor-href values to href. Elements become
// anchors; replaced elements such as images are wrapped in one instead.
func standardLinks(sc *StepContext) ([]string, error) {
	nodes := sc.Doc.Select("[" + legacy.AttrHref + "]")
	for _, n := range nodes {
		href := dom.Attr(n, legacy.AttrHref)
		dom.RemoveAttr(n, legacy.AttrHref)

		tag := "a"
		if isReplaced(n) {
			a := dom.NewElement("a", "href", href)
			n.Parent.InsertBefore(a, n)
			n.Parent.RemoveChild(n)
			a.AppendChild(n)
			tag = n.Data
		} else {
			dom.Rename(n, "a")
			dom.SetAttr(n, "href", href)
		}

		if sc.Website == nil {
			continue
		}
		if e := sc.Website.Element(strings.TrimSpace(dom.Attr(n, legacy.AttrID))); e != nil {
			e.TagName = tag
			if e.Link == nil {
				e.Link = legacy.ParseLink(href)
			}
		}
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return []string{fmt.Sprintf("Converted %s to standard links.", plural(len(nodes), "linked element"))}, nil
}

func isReplaced(n *html.Node) bool {
	switch n.Data {
	case "img", "video", "iframe", "input", "embed", "object":
		return true
	}
	return false
}

// defaultTypes are the type values that only restate the browser default.
var defaultTypes = map[string]bool{
	"":                       true,
	"text/javascript":        true,
	"application/javascript": true,
	"text/css":               true,
}

// stripTypeAttributes removes the type attribute from style and script tags
// when it only restates the default. Modules, import maps, templates and data
// payloads keep theirs.
func stripTypeAttributes(sc *StepContext) ([]string, error) {
	changed := 0
	for _, n := range sc.Doc.Select("style, script") {
		v, ok := dom.LookupAttr(n, "type")
		if !ok || island.IsDataScript(n) || !defaultTypes[strings.ToLower(strings.TrimSpace(v))] {
			continue
		}
		dom.RemoveAttr(n, "type")
		changed++
	}
	if changed == 0 {
		return nil, nil
	}
	return []string{fmt.Sprintf("Removed the obsolete type attribute from %s.", plural(changed, "style or script tag"))}, nil
}

var emptyRemovable = []string{"class", "style", "href", "src", "title", "id", legacy.AttrHref}

// removeEmptyAttributes drops attributes that were saved with an empty value.
func removeEmptyAttributes(sc *StepContext) ([]string, error) {
	removed := 0
	for _, n := range sc.Doc.FindAll(func(*html.Node) bool { return true }) {
		for _, key := range emptyRemovable {
			if v, ok := dom.LookupAttr(n, key); ok && strings.TrimSpace(v) == "" {
				dom.RemoveAttr(n, key)
				removed++
			}
		}
	}
	if removed == 0 {
		return nil, nil
	}
	sc.Logger.Debug("Removed empty attributes", logfields.Count(removed))
	return []string{fmt.Sprintf("Removed %s.", plural(removed, "empty attribute"))}, nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
