package legacy

import (
	"encoding/json"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrate/internal/logfields"
	"git.home.luguber.info/inful/sitemigrate/internal/model"
)

// DecodeSite extracts website-wide metadata. It returns nil only when the
// document has no head to read from.
func (d *Decoder) DecodeSite(doc *dom.Document) *model.Site {
	if doc.Head() == nil {
		return nil
	}
	meta := func(sel string) string {
		return strings.TrimSpace(dom.Attr(doc.SelectOne(sel), "content"))
	}
	text := func(sel string) string {
		return strings.TrimSpace(dom.Text(doc.SelectOne(sel)))
	}

	site := &model.Site{
		Title:         text("title"),
		Description:   meta("meta[name=description]"),
		Lang:          d.canonicalLang(dom.Attr(doc.HTML(), "lang")),
		Width:         meta("meta[name=website-width]"),
		HeadStyle:     text("style.head-style"),
		HeadScript:    text("script.head-script"),
		Favicon:       strings.TrimSpace(dom.Attr(doc.SelectOne("link[rel=icon]"), "href")),
		OGTitle:       meta("meta[property=og:title]"),
		OGDescription: meta("meta[property=og:description]"),
		OGImage:       meta("meta[property=og:image]"),
		TwitterCard:   meta("meta[name=twitter:card]"),
		TwitterSite:   meta("meta[name=twitter:site]"),
		Publication:   d.decodePublication(meta("meta[name=publication-path]")),
	}
	for _, l := range doc.Select("link." + ClassFontLink) {
		if family := strings.TrimSpace(dom.Attr(l, AttrFamily)); family != "" {
			site.Fonts = append(site.Fonts, family)
		}
	}
	if raw, ok := readRegistry(doc, ClassTextStyleData); ok {
		var styles map[string]any
		if err := json.Unmarshal(raw, &styles); err != nil {
			d.logger.Warn("Ignoring unreadable legacy text style registry", logfields.Error(err))
		} else if len(styles) > 0 {
			site.TextStyles = styles
		}
	}
	return site
}

// canonicalLang normalises a BCP 47 tag. Unparseable values are kept verbatim.
func (d *Decoder) canonicalLang(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	tag, err := language.Parse(raw)
	if err != nil {
		d.logger.Debug("Keeping unparseable language tag", slog.String("lang", raw), logfields.Error(err))
		return raw
	}
	return tag.String()
}

// decodePublication accepts the plain path of very old documents or the JSON
// descriptor of later ones. Parse failures resolve to nil.
func (d *Decoder) decodePublication(raw string) *model.PublicationTarget {
	if raw == "" {
		return nil
	}
	if !strings.HasPrefix(raw, "{") {
		return &model.PublicationTarget{Path: raw}
	}
	var target model.PublicationTarget
	if err := json.Unmarshal([]byte(raw), &target); err != nil {
		warn := errors.MalformedPublicationTarget(raw, err)
		d.logger.Warn(warn.Message(), logfields.Error(warn))
		return nil
	}
	return &target
}
