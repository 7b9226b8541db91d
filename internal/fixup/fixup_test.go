package fixup

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/legacy"
	"git.home.luguber.info/inful/sitemigrate/internal/model"
)

func newPass() *Pass {
	return New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDeletedPageScenario(t *testing.T) {
	w := &model.Website{
		Pages: []model.Page{{ID: "page-2"}},
		Elements: []model.Element{{
			ID:        "el-1",
			ClassList: []string{"page-1", "foo"},
			PageNames: []string{"page-1", "page-2"},
		}},
	}
	actions := newPass().Run(nil, w)

	assert.Equal(t, []string{"foo"}, w.Elements[0].ClassList)
	assert.Equal(t, []string{"page-2"}, w.Elements[0].PageNames)
	assert.NotEmpty(t, actions)
}

func TestPageIDLeakedIntoClasses(t *testing.T) {
	w := &model.Website{
		Pages:    []model.Page{{ID: "page-1"}},
		Elements: []model.Element{{ID: "el-1", ClassList: []string{"page-1", "selected", "hero"}}},
	}
	newPass().Run(nil, w)
	assert.Equal(t, []string{"hero"}, w.Elements[0].ClassList)
	assert.Empty(t, w.Violations(legacy.DefaultTables().IsReserved))
}

func TestNormalizeLinks(t *testing.T) {
	w := &model.Website{
		Pages: []model.Page{{ID: "page-a", Link: model.Link{LegacyType: "page", LegacyHref: "page-a"}}},
		Elements: []model.Element{
			{ID: "el-1", Link: &model.Link{LegacyType: "Internal", LegacyHref: "#!page-a"}},
			{ID: "el-2", Link: &model.Link{LegacyType: "external", LegacyHref: "https://example.com"}},
			{ID: "el-3", Link: &model.Link{LegacyHref: "#!page-a"}},
			{ID: "el-4", Link: &model.Link{Type: model.LinkURL, Target: "https://keep.example.com"}},
		},
	}
	newPass().Run(nil, w)

	assert.Equal(t, model.Link{Type: model.LinkPage, Target: "page-a"}, w.Pages[0].Link)
	assert.Equal(t, &model.Link{Type: model.LinkPage, Target: "page-a"}, w.Elements[0].Link)
	assert.Equal(t, &model.Link{Type: model.LinkURL, Target: "https://example.com"}, w.Elements[1].Link)
	assert.Equal(t, &model.Link{Type: model.LinkPage, Target: "page-a"}, w.Elements[2].Link)
	assert.Equal(t, &model.Link{Type: model.LinkURL, Target: "https://keep.example.com"}, w.Elements[3].Link)
}

func TestDropInvalidElements(t *testing.T) {
	w := &model.Website{
		Elements: []model.Element{
			{ID: "el-1", Children: []string{"el-2", ""}},
			{ID: ""},
			{ID: "el-2"},
			{ID: "el-2", Title: "duplicate"},
		},
	}
	newPass().Run(nil, w)
	require.Len(t, w.Elements, 2)
	assert.Equal(t, []string{"el-2"}, w.Elements[0].Children)
	assert.Empty(t, w.Elements[1].Title)
}

func TestExcludePagingScripts(t *testing.T) {
	doc, err := dom.ParseString(`<html><head>
<script src="/static/2.1/js/paging.js"></script>
<script src="/static/2.1/js/jquery-ui.min.js?v=2"></script>
<script src="/js/app.js"></script>
</head></html>`)
	require.NoError(t, err)

	p := newPass()
	actions := p.Run(doc, nil)
	assert.Len(t, actions, 1)
	assert.Len(t, doc.Select("script[data-publish-exclude=true]"), 2)
	assert.Len(t, doc.Select("script"), 3, "scripts are kept for editing")

	assert.Empty(t, p.Run(doc, nil), "second run changes nothing")
}

func TestRunIsIdempotent(t *testing.T) {
	w := &model.Website{
		Pages: []model.Page{{ID: "page-1"}},
		Elements: []model.Element{
			{ID: "el-1", ClassList: []string{"page-1", "page-9", "x"}, PageNames: []string{"page-9"}, Link: &model.Link{LegacyHref: "https://a.example"}},
			{ID: "el-1"},
		},
	}
	p := newPass()
	require.NotEmpty(t, p.Run(nil, w))
	snapshot := w.Clone()
	assert.Empty(t, p.Run(nil, w))
	assert.Equal(t, snapshot, w)
}
