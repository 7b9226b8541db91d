package legacy

import "git.home.luguber.info/inful/sitemigrate/internal/model"

// Sanitize removes, from every element's class list, the element's own id, any
// page id and every reserved token. It reports how many tokens were removed.
func Sanitize(tables *Tables, elements []model.Element, pages []model.Page) int {
	if tables == nil {
		tables = DefaultTables()
	}
	pageIDs := make(map[string]bool, len(pages))
	for _, p := range pages {
		pageIDs[p.ID] = true
	}
	removed := 0
	for i := range elements {
		e := &elements[i]
		if len(e.ClassList) == 0 {
			continue
		}
		kept := make([]string, 0, len(e.ClassList))
		for _, c := range e.ClassList {
			if c == e.ID || pageIDs[c] || tables.IsReserved(c) {
				removed++
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) == 0 {
			kept = nil
		}
		e.ClassList = kept
	}
	return removed
}
