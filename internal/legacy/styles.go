package legacy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/logfields"
	"git.home.luguber.info/inful/sitemigrate/internal/model"
)

type styleRegistry struct {
	desktop map[string]model.Style
	mobile  map[string]model.Style
}

// readRegistry returns the raw JSON body of a legacy registry script.
func readRegistry(doc *dom.Document, class string) ([]byte, bool) {
	n := doc.SelectOne("script." + class)
	if n == nil {
		return nil, false
	}
	body := strings.TrimSpace(dom.Text(n))
	if body == "" {
		return nil, false
	}
	return []byte(body), true
}

func (d *Decoder) readStyleRegistry(doc *dom.Document) styleRegistry {
	reg := styleRegistry{}
	raw, ok := readRegistry(doc, ClassStyleRegistry)
	if !ok {
		return reg
	}
	var payload struct {
		Desktop map[string]map[string]any `json:"desktop"`
		Mobile  map[string]map[string]any `json:"mobile"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		d.logger.Warn("Ignoring unreadable legacy style registry", logfields.Error(err))
		return reg
	}
	reg.desktop = toStyles(payload.Desktop)
	reg.mobile = toStyles(payload.Mobile)
	d.logger.Debug("Read legacy style registry",
		slog.Int("desktop", len(reg.desktop)), slog.Int("mobile", len(reg.mobile)))
	return reg
}

func toStyles(in map[string]map[string]any) map[string]model.Style {
	out := make(map[string]model.Style, len(in))
	for id, props := range in {
		s := make(model.Style, len(props))
		for k, v := range props {
			if v == nil {
				continue
			}
			s[strings.TrimSpace(k)] = strings.TrimSpace(fmt.Sprint(v))
		}
		out[id] = s
	}
	return out
}

// lookup returns copies of the registered styles for id. When foldMinHeight is
// set, a min-height is moved to height.
func (r styleRegistry) lookup(id string, foldMinHeight bool) model.StyleSet {
	set := model.StyleSet{
		Desktop: r.desktop[id].Clone(),
		Mobile:  r.mobile[id].Clone(),
	}
	if foldMinHeight {
		FoldMinHeight(set.Desktop)
		FoldMinHeight(set.Mobile)
	}
	return set
}

// FoldMinHeight moves min-height into height, which the legacy renderer
// treated as interchangeable. An explicit height wins.
func FoldMinHeight(s model.Style) {
	mh, ok := s["min-height"]
	if !ok {
		return
	}
	if h, has := s["height"]; !has || h == "" || h == "auto" {
		s["height"] = mh
	}
	delete(s, "min-height")
}

// TypeDefaults returns the computed default desktop style of an element type.
func TypeDefaults(t model.ElementType) model.Style {
	switch t {
	case model.Section:
		return model.Style{"position": "static", "width": "100%", "height": "100px"}
	case model.Container:
		return model.Style{"width": "100px", "height": "100px", "background-color": "rgb(255, 255, 255)"}
	default:
		return model.Style{"width": "100px", "height": "100px"}
	}
}

// withDefaults merges the type defaults underneath s.
func withDefaults(s model.Style, t model.ElementType) model.Style {
	out := TypeDefaults(t)
	for k, v := range s {
		out[k] = v
	}
	return out
}
