package legacy

import (
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrate/internal/logfields"
	"git.home.luguber.info/inful/sitemigrate/internal/model"
)

var pageAnchorRe = regexp.MustCompile(`^#!(page-[A-Za-z0-9_-]+)$`)

// Decoder rebuilds a Website from legacy markup.
type Decoder struct {
	tables *Tables
	logger *slog.Logger
}

// NewDecoder returns a decoder. Nil arguments select the defaults.
func NewDecoder(tables *Tables, logger *slog.Logger) *Decoder {
	if tables == nil {
		tables = DefaultTables()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{tables: tables, logger: logger}
}

// Tables returns the lookup tables the decoder uses.
func (d *Decoder) Tables() *Tables { return d.tables }

// Decode reconstructs the whole website and sanitises the element class lists.
func (d *Decoder) Decode(doc *dom.Document) (*model.Website, error) {
	pages := d.DecodePages(doc)
	elements, err := d.DecodeElements(doc, pages)
	if err != nil {
		return nil, err
	}
	Sanitize(d.tables, elements, pages)
	return &model.Website{
		Site:     d.DecodeSite(doc),
		Pages:    pages,
		Elements: elements,
	}, nil
}

// DecodePages reads every page marker anchor.
func (d *Decoder) DecodePages(doc *dom.Document) []model.Page {
	var pages []model.Page
	seen := map[string]bool{}
	for _, a := range doc.Select("a[" + AttrType + "=" + PageType + "]") {
		id := strings.TrimSpace(dom.Attr(a, "id"))
		if id == "" {
			d.logger.Warn("Skipping page marker without id", slog.String("name", strings.TrimSpace(dom.Text(a))))
			continue
		}
		if seen[id] {
			d.logger.Warn("Skipping duplicate page marker", logfields.PageID(id))
			continue
		}
		seen[id] = true
		pages = append(pages, model.Page{
			ID:        id,
			Name:      strings.TrimSpace(dom.Text(a)),
			Link:      model.Link{Type: model.LinkPage, Target: id},
			CanDelete: !prevented(a, "data-prevent-delete"),
			CanRename: !prevented(a, "data-prevent-rename"),
			CanMove:   !prevented(a, "data-prevent-move"),
		})
	}
	return pages
}

func prevented(n *html.Node, attr string) bool {
	v, ok := dom.LookupAttr(n, attr)
	return ok && !strings.EqualFold(strings.TrimSpace(v), "false")
}

// IsEditable reports whether n is a legacy editable node.
func IsEditable(n *html.Node) bool {
	return n.Type == html.ElementNode && dom.HasClass(n, ClassEditable) && dom.HasAttr(n, AttrID)
}

// DecodeElements derives one Element per editable node in document order.
// Class lists are returned unsanitised; see Sanitize.
func (d *Decoder) DecodeElements(doc *dom.Document, pages []model.Page) ([]model.Element, error) {
	pageIDs := make(map[string]bool, len(pages))
	for _, p := range pages {
		pageIDs[p.ID] = true
	}
	styles := d.readStyleRegistry(doc)
	components := d.readComponentRegistry(doc)

	nodes := doc.FindAll(IsEditable)
	elements := make([]model.Element, 0, len(nodes))
	for _, n := range nodes {
		e, err := d.decodeElement(n, pageIDs, styles, components)
		if err != nil {
			return nil, err
		}
		elements = append(elements, e)
	}
	return elements, nil
}

func (d *Decoder) decodeElement(n *html.Node, pageIDs map[string]bool, styles styleRegistry, components componentRegistry) (model.Element, error) {
	id := strings.TrimSpace(dom.Attr(n, AttrID))
	classes := dom.Classes(n)
	has := func(token string) bool { return slices.Contains(classes, token) }

	typ, ok := ParseType(dom.Attr(n, AttrType))
	if !ok {
		d.logger.Error("Unknown element type", logfields.ElementID(id), slog.String("type", dom.Attr(n, AttrType)))
		return model.Element{}, errors.DecodeError(id, "unknown element type "+strconv.Quote(dom.Attr(n, AttrType)))
	}
	if typ == model.Container && has(ClassSection) {
		typ = model.Section
	}

	e := model.Element{
		ID:        id,
		TagName:   n.Data,
		Type:      typ,
		Title:     dom.Attr(n, "title"),
		ClassList: classes,
		Link:      decodeLink(n),
		Visibility: model.Visibility{
			Desktop: !has("hide-on-desktop"),
			Mobile:  !has("hide-on-mobile"),
		},
		EnableDrag: !has("prevent-draggable"),
		EnableDrop: typ.AcceptsChildren() && !has("prevent-droppable"),
	}
	for _, c := range classes {
		if pageIDs[c] && !slices.Contains(e.PageNames, c) {
			e.PageNames = append(e.PageNames, c)
		}
	}

	all := has("prevent-resizable")
	e.EnableResize = model.ResizeFlags{
		Top:    !all && !has("prevent-resizable-top"),
		Bottom: !all && !has("prevent-resizable-bottom"),
	}
	if typ != model.Section {
		e.EnableResize.Left = !all && !has("prevent-resizable-left")
		e.EnableResize.Right = !all && !has("prevent-resizable-right")
	}

	e.Style = styles.lookup(id, n.Data != "body")
	e.Style.Desktop = withDefaults(e.Style.Desktop, typ)
	e.Component = components.lookup(d, id)

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectEditable(c, &e.Children)
	}
	if typ.IsContentBearing() {
		e.InnerHTML = strings.TrimSpace(dom.InnerHTML(contentNode(n)))
	}
	return e, nil
}

// ParseType maps a type attribute, with or without the -element suffix, to an
// element type. Sections are recognised later from their class token.
func ParseType(raw string) (model.ElementType, bool) {
	t := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "-element")
	switch model.ElementType(t) {
	case model.Container, model.Section, model.Image, model.Text, model.HTML:
		return model.ElementType(t), true
	}
	return "", false
}

func decodeLink(n *html.Node) *model.Link {
	href, ok := dom.LookupAttr(n, AttrHref)
	if !ok {
		return nil
	}
	return ParseLink(href)
}

// ParseLink classifies a legacy href value: page anchors such as
// "#!page-about" become page links, anything else a URL link.
func ParseLink(href string) *model.Link {
	if m := pageAnchorRe.FindStringSubmatch(strings.TrimSpace(href)); m != nil {
		return &model.Link{Type: model.LinkPage, Target: m[1]}
	}
	return &model.Link{Type: model.LinkURL, Target: href}
}

// collectEditable appends the nearest editable descendants of n (n included).
func collectEditable(n *html.Node, out *[]string) {
	if n.Type != html.ElementNode {
		return
	}
	if IsEditable(n) {
		*out = append(*out, strings.TrimSpace(dom.Attr(n, AttrID)))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectEditable(c, out)
	}
}

func contentNode(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && dom.HasClass(c, ClassContent) {
			return c
		}
	}
	return n
}
