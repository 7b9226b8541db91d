// Package fixup repairs model and markup drift left by earlier editor bugs.
// It runs on every upgrade, whether or not migration steps were applied.
package fixup

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/foundation/normalization"
	"git.home.luguber.info/inful/sitemigrate/internal/legacy"
	"git.home.luguber.info/inful/sitemigrate/internal/logfields"
	"git.home.luguber.info/inful/sitemigrate/internal/model"
)

// AttrPublishExclude marks markup the publish pipeline must drop.
const AttrPublishExclude = "data-publish-exclude"

var linkTypes = normalization.NewNormalizer(map[string]model.LinkType{
	"page":     model.LinkPage,
	"internal": model.LinkPage,
	"anchor":   model.LinkPage,
	"url":      model.LinkURL,
	"external": model.LinkURL,
	"link":     model.LinkURL,
	"web":      model.LinkURL,
}, "")

// Pass is the consistency fix-up pass.
type Pass struct {
	tables *legacy.Tables
	logger *slog.Logger
}

// New returns a fix-up pass. Nil arguments select the defaults.
func New(tables *legacy.Tables, logger *slog.Logger) *Pass {
	if tables == nil {
		tables = legacy.DefaultTables()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pass{tables: tables, logger: logger}
}

// Run repairs w and doc in place and returns the actions taken. Either may be
// nil; a nil or empty model skips the model repairs.
func (p *Pass) Run(doc *dom.Document, w *model.Website) []string {
	var actions []string
	add := func(n int, format string) {
		if n > 0 {
			actions = append(actions, fmt.Sprintf(format, n))
		}
	}
	if !w.IsEmpty() {
		add(p.normalizeLinks(w), "Updated %d link(s) to the current format.")
		add(p.filterPageNames(w), "Removed %d reference(s) to deleted pages.")
		add(legacy.Sanitize(p.tables, w.Elements, w.Pages), "Removed %d internal or page token(s) from element classes.")
		add(p.dropInvalidElements(w), "Removed %d element(s) with a missing or duplicate id.")
	}
	if doc != nil {
		add(p.excludePagingScripts(doc), "Excluded %d legacy paging script(s) from publishing.")
	}
	for _, a := range actions {
		p.logger.Debug("Fix-up applied", slog.String("action", a))
	}
	return actions
}

// normalizeLinks rewrites links still using the linkType/href shape.
func (p *Pass) normalizeLinks(w *model.Website) int {
	fixed := 0
	for i := range w.Elements {
		if l := w.Elements[i].Link; l != nil && l.IsLegacy() {
			*l = normalizeLink(*l)
			fixed++
		}
	}
	for i := range w.Pages {
		if w.Pages[i].Link.IsLegacy() {
			w.Pages[i].Link = normalizeLink(w.Pages[i].Link)
			fixed++
		}
	}
	return fixed
}

func normalizeLink(l model.Link) model.Link {
	target := l.Target
	if target == "" {
		target = l.LegacyHref
	}
	typ := l.Type
	if typ == "" {
		if t, ok := linkTypes.Lookup(l.LegacyType); ok {
			typ = t
		} else {
			typ = legacy.ParseLink(target).Type
		}
	}
	if typ == model.LinkPage {
		target = strings.TrimPrefix(target, legacy.PageAnchorTag)
	}
	return model.Link{Type: typ, Target: target}
}

// filterPageNames drops page references that no longer resolve. The id of a
// deleted page is also removed from the class list it leaked into.
func (p *Pass) filterPageNames(w *model.Website) int {
	pages := w.PageIDs()
	dropped := 0
	for i := range w.Elements {
		e := &w.Elements[i]
		if len(e.PageNames) == 0 {
			continue
		}
		var stale []string
		kept := make([]string, 0, len(e.PageNames))
		for _, id := range e.PageNames {
			if pages[id] {
				kept = append(kept, id)
			} else {
				stale = append(stale, id)
			}
		}
		if len(stale) == 0 {
			continue
		}
		dropped += len(stale)
		p.logger.Debug("Dropping stale page references", logfields.ElementID(e.ID), logfields.Count(len(stale)))
		if len(kept) == 0 {
			kept = nil
		}
		e.PageNames = kept
		e.ClassList = without(e.ClassList, stale)
	}
	return dropped
}

func without(list, drop []string) []string {
	out := slices.DeleteFunc(slices.Clone(list), func(s string) bool { return slices.Contains(drop, s) })
	if len(out) == 0 {
		return nil
	}
	return out
}

// dropInvalidElements removes elements without an id or whose id was already
// seen, and child references that no longer resolve.
func (p *Pass) dropInvalidElements(w *model.Website) int {
	seen := make(map[string]bool, len(w.Elements))
	kept := w.Elements[:0:0]
	for _, e := range w.Elements {
		if e.ID == "" || seen[e.ID] {
			p.logger.Warn("Dropping element with invalid id", logfields.ElementID(e.ID))
			continue
		}
		seen[e.ID] = true
		kept = append(kept, e)
	}
	dropped := len(w.Elements) - len(kept)
	if dropped == 0 {
		return 0
	}
	for i := range kept {
		if len(kept[i].Children) == 0 {
			continue
		}
		kept[i].Children = slices.DeleteFunc(slices.Clone(kept[i].Children), func(id string) bool { return !seen[id] })
		if len(kept[i].Children) == 0 {
			kept[i].Children = nil
		}
	}
	w.Elements = kept
	return dropped
}

// excludePagingScripts marks the legacy paging scripts as not publishable.
// They stay in the document because old pages still load them while editing.
func (p *Pass) excludePagingScripts(doc *dom.Document) int {
	marked := 0
	for _, s := range doc.FindAll(func(n *html.Node) bool { return n.Data == "script" && dom.HasAttr(n, "src") }) {
		if !p.tables.IsPagingScript(dom.Attr(s, "src")) || dom.Attr(s, AttrPublishExclude) == "true" {
			continue
		}
		dom.SetAttr(s, AttrPublishExclude, "true")
		marked++
	}
	return marked
}
