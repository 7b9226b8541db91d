package legacy

import (
	"encoding/json"
	"log/slog"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/logfields"
	"git.home.luguber.info/inful/sitemigrate/internal/model"
)

type componentRegistry map[string]map[string]any

func (d *Decoder) readComponentRegistry(doc *dom.Document) componentRegistry {
	raw, ok := readRegistry(doc, ClassComponentData)
	if !ok {
		return nil
	}
	var reg componentRegistry
	if err := json.Unmarshal(raw, &reg); err != nil {
		d.logger.Warn("Ignoring unreadable legacy component registry", logfields.Error(err))
		return nil
	}
	return reg
}

// lookup lifts the name and template identity of a registered component to
// the descriptor and keeps every other field as opaque data.
func (r componentRegistry) lookup(d *Decoder, id string) *model.Component {
	entry, ok := r[id]
	if !ok || entry == nil {
		return nil
	}
	c := &model.Component{}
	data := make(map[string]any, len(entry))
	for k, v := range entry {
		switch k {
		case "name":
			c.Name, _ = v.(string)
		case "templateName":
			c.TemplateName, _ = v.(string)
		case "template":
		default:
			data[k] = v
		}
	}
	if c.TemplateName == "" {
		c.TemplateName, _ = entry["template"].(string)
	}
	if len(data) > 0 {
		c.Data = data
	}
	if c.TemplateName == "" {
		c.TemplateName = c.Name
	}
	if _, known := d.tables.Template(c.TemplateName); !known {
		d.logger.Info("Keeping component with unknown template as opaque data",
			logfields.ElementID(id), slog.String("template", c.TemplateName))
	}
	return c
}
