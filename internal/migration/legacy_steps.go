package migration

import (
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrate/internal/island"
	"git.home.luguber.info/inful/sitemigrate/internal/legacy"
	"git.home.luguber.info/inful/sitemigrate/internal/logfields"
	"git.home.luguber.info/inful/sitemigrate/internal/model"
)

const (
	// SiteMetadataKey holds the site metadata extension data.
	SiteMetadataKey = "site-metadata"
	// BodyElementID is the id of the editable element wrapping the page body.
	BodyElementID = "body-initial"
)

// decodeLegacy crosses from the legacy format to the structured one. The
// model is rebuilt from markup, the data island is created and the legacy
// registries and classes are removed. Documents that already carry an island
// are left alone.
func decodeLegacy(sc *StepContext) ([]string, error) {
	if island.Exists(sc.Doc) {
		return nil, nil
	}
	w, err := sc.Decoder.Decode(sc.Doc)
	if err != nil {
		return nil, err
	}
	if w.Site == nil || len(w.Pages) == 0 || len(w.Elements) == 0 {
		sc.Logger.Error("Legacy markup decoded to an empty website",
			slog.Bool("site", w.Site != nil),
			slog.Int("pages", len(w.Pages)),
			slog.Int("elements", len(w.Elements)))
		return nil, errors.DecodeError("", "legacy markup contains no site, pages or elements")
	}
	if w.Site.Data == nil {
		w.Site.Data = map[string]any{}
	}
	w.Site.Data[SiteMetadataKey] = map[string]any{}
	sc.Website = w

	if _, err := island.Sync(sc.Doc, w); err != nil {
		return nil, errors.DecodeError("", err.Error())
	}

	actions := []string{
		fmt.Sprintf("Rebuilt the website from legacy markup: %s and %s.",
			plural(len(w.Pages), "page"), plural(len(w.Elements), "element")),
	}
	removed := 0
	for _, sel := range []string{
		"." + legacy.ClassLegacyPages,
		"script." + legacy.ClassStyleRegistry,
		"script." + legacy.ClassComponentData,
		"script." + legacy.ClassTextStyleData,
	} {
		for _, n := range sc.Doc.Select(sel) {
			dom.Remove(n)
			removed++
		}
	}
	if removed > 0 {
		actions = append(actions, fmt.Sprintf("Removed %s.", plural(removed, "legacy container")))
	}

	tables := sc.Decoder.Tables()
	classes := 0
	for _, n := range sc.Doc.FindAll(func(n *html.Node) bool { return dom.HasAttr(n, "class") }) {
		for _, c := range dom.Classes(n) {
			if tables.IsObsolete(c) {
				dom.RemoveClass(n, c)
				classes++
			}
		}
	}
	if classes > 0 {
		actions = append(actions, fmt.Sprintf("Removed %s.", plural(classes, "obsolete CSS class")))
	}
	sc.Logger.Info("Decoded legacy website",
		logfields.Count(len(w.Elements)), slog.Int("pages", len(w.Pages)))
	return actions, nil
}

// bodyElement makes <body> an editable container whose children are the
// top-level elements.
func bodyElement(sc *StepContext) ([]string, error) {
	body := sc.Doc.Body()
	if body == nil {
		return nil, nil
	}
	var actions []string
	if !dom.HasAttr(body, legacy.AttrID) {
		dom.AddClass(body, legacy.ClassEditable)
		dom.SetAttr(body, legacy.AttrID, BodyElementID)
		dom.SetAttr(body, legacy.AttrType, string(model.Container)+typeSuffix)
		actions = append(actions, "Made the page body an editable element.")
	}

	w := sc.Website
	if w == nil || w.Element(BodyElementID) != nil {
		return actions, nil
	}
	nested := map[string]bool{}
	for _, e := range w.Elements {
		for _, c := range e.Children {
			nested[c] = true
		}
	}
	var top []string
	for _, e := range w.Elements {
		if !nested[e.ID] {
			top = append(top, e.ID)
		}
	}
	w.Elements = slices.Insert(w.Elements, 0, model.Element{
		ID:         BodyElementID,
		TagName:    "body",
		Type:       model.Container,
		Children:   top,
		Style:      model.StyleSet{Desktop: model.Style{"min-height": "100%"}},
		Visibility: model.Visibility{Desktop: true, Mobile: true},
		EnableDrop: true,
	})
	actions = append(actions, fmt.Sprintf("Added the body element with %s.", plural(len(top), "top-level element")))
	return actions, nil
}
