// Package island reads and writes the JSON data island embedded in a saved
// document's head.
package island

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/model"
)

const (
	// ID is the id attribute of the island script element.
	ID       = "site-data-island"
	selector = "script#" + ID
	mimeType = "application/json"
)

// Payload is the island content.
type Payload struct {
	Fonts      []string                    `json:"fonts"`
	Desktop    map[string]model.Style      `json:"desktop"`
	Mobile     map[string]model.Style      `json:"mobile"`
	Components map[string]*model.Component `json:"components"`
	Styles     map[string]any              `json:"styles"`

	// Extra holds top-level keys this version does not model. They are
	// written back unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

// payloadFields has the Payload layout without its JSON methods.
type payloadFields Payload

var knownKeys = map[string]bool{
	"fonts":      true,
	"desktop":    true,
	"mobile":     true,
	"components": true,
	"styles":     true,
}

// MarshalJSON encodes the modelled fields plus Extra. A modelled field wins
// over an extra key of the same name.
func (p Payload) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(payloadFields(p))
	if err != nil || len(p.Extra) == 0 {
		return known, err
	}
	out := make(map[string]json.RawMessage, len(knownKeys)+len(p.Extra))
	if err := json.Unmarshal(known, &out); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if !knownKeys[k] {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the modelled fields and keeps every other top-level
// key in Extra.
func (p *Payload) UnmarshalJSON(data []byte) error {
	fields := payloadFields(*p)
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var extra map[string]json.RawMessage
	for k, v := range raw {
		if knownKeys[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	*p = Payload(fields)
	p.Extra = extra
	p.fillEmpty()
	return nil
}

// fillEmpty replaces null collections so they encode as [] and {}.
func (p *Payload) fillEmpty() {
	if p.Fonts == nil {
		p.Fonts = []string{}
	}
	if p.Desktop == nil {
		p.Desktop = map[string]model.Style{}
	}
	if p.Mobile == nil {
		p.Mobile = map[string]model.Style{}
	}
	if p.Components == nil {
		p.Components = map[string]*model.Component{}
	}
	if p.Styles == nil {
		p.Styles = map[string]any{}
	}
}

// NewPayload returns an empty payload whose collections encode as [] and {}.
func NewPayload() *Payload {
	return &Payload{
		Fonts:      []string{},
		Desktop:    map[string]model.Style{},
		Mobile:     map[string]model.Style{},
		Components: map[string]*model.Component{},
		Styles:     map[string]any{},
	}
}

// FromWebsite projects the styles, components and fonts of w into a payload.
func FromWebsite(w *model.Website) *Payload {
	p := NewPayload()
	if w == nil {
		return p
	}
	if w.Site != nil {
		p.Fonts = append(p.Fonts, w.Site.Fonts...)
		for k, v := range w.Site.TextStyles {
			p.Styles[k] = v
		}
	}
	for _, e := range w.Elements {
		if len(e.Style.Desktop) > 0 {
			p.Desktop[e.ID] = e.Style.Desktop
		}
		if len(e.Style.Mobile) > 0 {
			p.Mobile[e.ID] = e.Style.Mobile
		}
		if e.Component != nil {
			p.Components[e.ID] = e.Component
		}
	}
	return p
}

// Encode serialises the payload. Map keys are sorted so output is stable.
func Encode(p *Payload) ([]byte, error) {
	if p == nil {
		p = NewPayload()
	}
	return json.Marshal(p)
}

// Decode parses island content.
func Decode(data []byte) (*Payload, error) {
	p := NewPayload()
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode data island: %w", err)
	}
	return p, nil
}

// Exists reports whether doc already carries a data island.
func Exists(doc *dom.Document) bool {
	return doc.SelectOne(selector) != nil
}

// Read returns the island payload, or false when the document has none.
func Read(doc *dom.Document) (*Payload, bool, error) {
	node := doc.SelectOne(selector)
	if node == nil {
		return nil, false, nil
	}
	p, err := Decode([]byte(dom.Text(node)))
	if err != nil {
		return nil, true, err
	}
	return p, true, nil
}

// Write stores p in the island, creating the script element in <head> when
// missing. Top-level keys of an existing island that p does not carry are
// kept. It reports whether the document changed.
func Write(doc *dom.Document, p *Payload) (bool, error) {
	if p == nil {
		p = NewPayload()
	}
	node := doc.SelectOne(selector)
	if node != nil {
		if old, err := Decode([]byte(dom.Text(node))); err == nil && len(old.Extra) > 0 {
			merged := *p
			merged.Extra = maps.Clone(p.Extra)
			if merged.Extra == nil {
				merged.Extra = make(map[string]json.RawMessage, len(old.Extra))
			}
			for k, v := range old.Extra {
				if _, ok := merged.Extra[k]; !ok {
					merged.Extra[k] = v
				}
			}
			p = &merged
		}
	}

	data, err := Encode(p)
	if err != nil {
		return false, fmt.Errorf("encode data island: %w", err)
	}
	content := string(data)

	if node == nil {
		head := doc.Head()
		if head == nil {
			return false, fmt.Errorf("write data island: document has no head")
		}
		node = dom.NewElement("script", "type", mimeType, "id", ID)
		node.AppendChild(&html.Node{Type: html.TextNode, Data: content})
		head.AppendChild(node)
		return true, nil
	}
	if strings.TrimSpace(dom.Text(node)) == content && dom.Attr(node, "type") == mimeType {
		return false, nil
	}
	dom.SetAttr(node, "type", mimeType)
	dom.SetText(node, content)
	return true, nil
}

// Sync rewrites the island from the model.
func Sync(doc *dom.Document, w *model.Website) (bool, error) {
	return Write(doc, FromWebsite(w))
}

// IsDataScript reports whether n is a script whose body is a data payload
// rather than executable code.
func IsDataScript(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "script" {
		return false
	}
	t := strings.ToLower(dom.Attr(n, "type"))
	return dom.Attr(n, "id") == ID || strings.Contains(t, "json") || t == "text/template"
}
