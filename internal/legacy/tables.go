// Package legacy reconstructs the structured website model from documents
// saved before the data island existed, using only markup attributes and
// class tokens.
package legacy

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// Markup conventions of the legacy format.
const (
	ClassEditable      = "editable-style"
	ClassSection       = "section-element"
	ClassContent       = "element-content"
	ClassLegacyPages   = "legacy-pages"
	ClassStyleRegistry = "legacy-styles"
	ClassComponentData = "legacy-component-data"
	ClassTextStyleData = "legacy-style-data"
	ClassFontLink      = "font-link"

	AttrID        = "data-editor-id"
	AttrType      = "data-editor-type"
	AttrHref      = "data-editor-href"
	AttrFamily    = "data-family"
	PageType      = "page"
	PageAnchorTag = "#!"
)

// TemplateInfo describes a component template known to legacy documents.
type TemplateInfo struct {
	Name        string
	Description string
	// DataKeys are the fields the template stores in its opaque data.
	DataKeys []string
}

// Tables holds the read-only lookup tables used while decoding. A Tables value
// is never modified after construction and may be shared between goroutines.
type Tables struct {
	reserved         map[string]bool
	reservedPrefixes []string
	obsolete         map[string]bool
	templates        map[string]TemplateInfo
	pagingScripts    []string
}

var defaultTables = sync.OnceValue(func() *Tables {
	return NewTables(
		[]string{
			ClassEditable, "selected", "dragging", "resizing", "editing",
			"paged-element", "paged-element-hidden", "page-link-active",
			"site-runtime", "hide-on-mobile", "hide-on-desktop", ClassSection,
			"container-element", "image-element", "text-element", "html-element",
			"editable-plugin-created", "website-width", ClassContent,
			"ui-resizable", "ui-draggable", "ui-droppable", "ui-resizable-resizing",
			"ui-draggable-dragging", "ui-droppable-hover", "ui-droppable-active",
		},
		[]string{"prevent-"},
		[]string{
			"editable-plugin-created", "ui-resizable", "ui-draggable", "ui-droppable",
			"ui-resizable-resizing", "ui-draggable-dragging", "ui-droppable-hover",
			"ui-droppable-active", "paged-element-hidden", "page-link-active",
		},
		[]TemplateInfo{
			{Name: "form", Description: "contact form", DataKeys: []string{"fields", "action", "successMessage"}},
			{Name: "map", Description: "embedded map", DataKeys: []string{"address", "zoom"}},
			{Name: "gallery", Description: "image gallery", DataKeys: []string{"images", "autoplay"}},
			{Name: "menu", Description: "page menu", DataKeys: []string{"orientation"}},
			{Name: "video", Description: "embedded video", DataKeys: []string{"url", "autoplay"}},
		},
		[]string{"pageable.js", "paging.js", "jquery-ui.min.js"},
	)
})

// DefaultTables returns the process-wide tables, built on first use.
func DefaultTables() *Tables {
	return defaultTables()
}

// NewTables builds a Tables value from the given lists. The inputs are copied.
func NewTables(reserved, reservedPrefixes, obsolete []string, templates []TemplateInfo, pagingScripts []string) *Tables {
	t := &Tables{
		reserved:         make(map[string]bool, len(reserved)),
		reservedPrefixes: slices.Clone(reservedPrefixes),
		obsolete:         make(map[string]bool, len(obsolete)),
		templates:        make(map[string]TemplateInfo, len(templates)),
		pagingScripts:    slices.Clone(pagingScripts),
	}
	for _, r := range reserved {
		t.reserved[r] = true
	}
	for _, o := range obsolete {
		t.obsolete[o] = true
	}
	for _, tpl := range templates {
		tpl.DataKeys = slices.Clone(tpl.DataKeys)
		t.templates[tpl.Name] = tpl
	}
	return t
}

// IsReserved reports whether token is an editor-internal class token.
func (t *Tables) IsReserved(token string) bool {
	if t.reserved[token] {
		return true
	}
	for _, p := range t.reservedPrefixes {
		if strings.HasPrefix(token, p) {
			return true
		}
	}
	return false
}

// IsObsolete reports whether class is a legacy-only class removed on upgrade.
func (t *Tables) IsObsolete(class string) bool {
	return t.obsolete[class]
}

// ObsoleteClasses returns the obsolete classes in sorted order.
func (t *Tables) ObsoleteClasses() []string {
	return slices.Sorted(maps.Keys(t.obsolete))
}

// Template looks up a known component template.
func (t *Tables) Template(name string) (TemplateInfo, bool) {
	tpl, ok := t.templates[name]
	return tpl, ok
}

// IsPagingScript reports whether src points at one of the legacy paging
// scripts that must not be published.
func (t *Tables) IsPagingScript(src string) bool {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	base := src[strings.LastIndex(src, "/")+1:]
	return slices.Contains(t.pagingScripts, base)
}
