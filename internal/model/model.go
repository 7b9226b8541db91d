// Package model defines the structured website model produced by decoding and
// migration: one Site, its Pages and the editable Elements.
package model

import (
	"fmt"
	"maps"
	"slices"
)

// ElementType is the kind of an editable element.
type ElementType string

const (
	Container ElementType = "container"
	Section   ElementType = "section"
	Image     ElementType = "image"
	Text      ElementType = "text"
	HTML      ElementType = "html"
)

// IsContentBearing reports whether elements of this type carry an inner markup
// payload rather than structural children.
func (t ElementType) IsContentBearing() bool {
	return t == Text || t == HTML || t == Image
}

// AcceptsChildren reports whether other elements may be dropped into this type.
func (t ElementType) AcceptsChildren() bool {
	return t == Container || t == Section
}

// LinkType distinguishes internal page links from external URLs.
type LinkType string

const (
	LinkPage LinkType = "page"
	LinkURL  LinkType = "url"
)

// Link is a link descriptor. Type and Target are the current shape; LinkType and
// Href are the older shape still found in some saved models.
type Link struct {
	Type   LinkType `json:"type,omitempty"`
	Target string   `json:"target,omitempty"`

	LegacyType string `json:"linkType,omitempty"`
	LegacyHref string `json:"href,omitempty"`
}

// IsLegacy reports whether the link still uses the older field names.
func (l Link) IsLegacy() bool {
	return l.LegacyType != "" || l.LegacyHref != ""
}

// Style maps CSS property names to values.
type Style map[string]string

// StyleSet holds one style map per breakpoint.
type StyleSet struct {
	Desktop Style `json:"desktop,omitempty"`
	Mobile  Style `json:"mobile,omitempty"`
}

// Visibility holds per-breakpoint visibility.
type Visibility struct {
	Desktop bool `json:"desktop"`
	Mobile  bool `json:"mobile"`
}

// ResizeFlags holds per-edge resize permissions.
type ResizeFlags struct {
	Top    bool `json:"top"`
	Bottom bool `json:"bottom"`
	Left   bool `json:"left"`
	Right  bool `json:"right"`
}

// Component is a component descriptor attached to an element. Data is opaque.
type Component struct {
	Name         string         `json:"name"`
	TemplateName string         `json:"templateName"`
	Data         map[string]any `json:"data,omitempty"`
}

// Element is one editable node of the website.
type Element struct {
	ID           string      `json:"id"`
	TagName      string      `json:"tagName"`
	Type         ElementType `json:"type"`
	Title        string      `json:"title,omitempty"`
	ClassList    []string    `json:"classList,omitempty"`
	PageNames    []string    `json:"pageNames,omitempty"`
	Children     []string    `json:"children,omitempty"`
	Link         *Link       `json:"link,omitempty"`
	Style        StyleSet    `json:"style"`
	Visibility   Visibility  `json:"visibility"`
	EnableResize ResizeFlags `json:"enableResize"`
	EnableDrag   bool        `json:"enableDrag"`
	EnableDrop   bool        `json:"enableDrop"`
	Component    *Component  `json:"component,omitempty"`
	InnerHTML    string      `json:"innerHTML,omitempty"`
}

// Page is one page of the website.
type Page struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Link      Link   `json:"link"`
	CanDelete bool   `json:"canDelete"`
	CanRename bool   `json:"canRename"`
	CanMove   bool   `json:"canMove"`
}

// PublicationTarget describes where a website is published.
type PublicationTarget struct {
	Provider string         `json:"provider,omitempty"`
	Path     string         `json:"path,omitempty"`
	URL      string         `json:"url,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

// Site holds website-wide metadata.
type Site struct {
	Title         string             `json:"title"`
	Description   string             `json:"description,omitempty"`
	Lang          string             `json:"lang,omitempty"`
	Width         string             `json:"width,omitempty"`
	HeadStyle     string             `json:"headStyle,omitempty"`
	HeadScript    string             `json:"headScript,omitempty"`
	Favicon       string             `json:"favicon,omitempty"`
	OGTitle       string             `json:"ogTitle,omitempty"`
	OGDescription string             `json:"ogDescription,omitempty"`
	OGImage       string             `json:"ogImage,omitempty"`
	TwitterCard   string             `json:"twitterCard,omitempty"`
	TwitterSite   string             `json:"twitterSite,omitempty"`
	Fonts         []string           `json:"fonts,omitempty"`
	TextStyles    map[string]any     `json:"textStyles,omitempty"`
	Publication   *PublicationTarget `json:"publication,omitempty"`
	Data          map[string]any     `json:"data,omitempty"`
}

// Website is the aggregate the migration engine receives and returns.
type Website struct {
	Site     *Site     `json:"site,omitempty"`
	Pages    []Page    `json:"pages,omitempty"`
	Elements []Element `json:"elements,omitempty"`
}

// IsEmpty reports whether the website carries no decoded content.
func (w *Website) IsEmpty() bool {
	return w == nil || (w.Site == nil && len(w.Pages) == 0 && len(w.Elements) == 0)
}

// PageIDs returns the set of page ids.
func (w *Website) PageIDs() map[string]bool {
	ids := make(map[string]bool, len(w.Pages))
	for _, p := range w.Pages {
		ids[p.ID] = true
	}
	return ids
}

// Element returns the element with the given id, or nil.
func (w *Website) Element(id string) *Element {
	for i := range w.Elements {
		if w.Elements[i].ID == id {
			return &w.Elements[i]
		}
	}
	return nil
}

// Violations lists every broken model invariant. An empty result means the
// model is consistent.
func (w *Website) Violations(reserved func(string) bool) []string {
	var out []string
	pages := w.PageIDs()
	elements := make(map[string]bool, len(w.Elements))
	for _, e := range w.Elements {
		switch {
		case e.ID == "":
			out = append(out, "element with empty id")
		case elements[e.ID]:
			out = append(out, fmt.Sprintf("duplicate element id %q", e.ID))
		case pages[e.ID]:
			out = append(out, fmt.Sprintf("element id %q collides with a page id", e.ID))
		}
		elements[e.ID] = true
		for _, p := range e.PageNames {
			if !pages[p] {
				out = append(out, fmt.Sprintf("element %q references unknown page %q", e.ID, p))
			}
		}
		for _, c := range e.ClassList {
			if pages[c] {
				out = append(out, fmt.Sprintf("element %q has page id %q in its class list", e.ID, c))
			}
			if reserved != nil && reserved(c) {
				out = append(out, fmt.Sprintf("element %q has reserved token %q in its class list", e.ID, c))
			}
		}
	}
	return out
}

// Clone returns a deep copy of the website.
func (w *Website) Clone() *Website {
	if w == nil {
		return nil
	}
	out := &Website{Site: w.Site.Clone()}
	if w.Pages != nil {
		out.Pages = slices.Clone(w.Pages)
	}
	if w.Elements != nil {
		out.Elements = make([]Element, len(w.Elements))
		for i := range w.Elements {
			out.Elements[i] = w.Elements[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the site.
func (s *Site) Clone() *Site {
	if s == nil {
		return nil
	}
	out := *s
	out.Fonts = slices.Clone(s.Fonts)
	out.TextStyles = cloneMap(s.TextStyles)
	out.Data = cloneMap(s.Data)
	if s.Publication != nil {
		p := *s.Publication
		p.Options = cloneMap(s.Publication.Options)
		out.Publication = &p
	}
	return &out
}

// Clone returns a deep copy of the element.
func (e Element) Clone() Element {
	out := e
	out.ClassList = slices.Clone(e.ClassList)
	out.PageNames = slices.Clone(e.PageNames)
	out.Children = slices.Clone(e.Children)
	out.Style = StyleSet{Desktop: e.Style.Desktop.Clone(), Mobile: e.Style.Mobile.Clone()}
	if e.Link != nil {
		l := *e.Link
		out.Link = &l
	}
	if e.Component != nil {
		c := *e.Component
		c.Data = cloneMap(e.Component.Data)
		out.Component = &c
	}
	return out
}

// Clone returns a copy of the style map, preserving nil.
func (s Style) Clone() Style {
	return maps.Clone(s)
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
