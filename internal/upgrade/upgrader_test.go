package upgrade

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrate/internal/island"
	"git.home.luguber.info/inful/sitemigrate/internal/legacy"
	"git.home.luguber.info/inful/sitemigrate/internal/model"
	"git.home.luguber.info/inful/sitemigrate/internal/version"
	"git.home.luguber.info/inful/sitemigrate/internal/versioning"
)

func legacyDoc(saved string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en"><head>
<meta name="generator" content="Site Editor v%s">
<title>Bakery</title>
<script data-static-asset src="//host/static/2.1/example/example.js"></script>
<script src="/static/2.1/js/pageable.js"></script>
<script type="text/json" class="legacy-styles">{"desktop":{"el-1":{"min-height":"120px"}},"mobile":{}}</script>
</head><body>
<div class="legacy-pages"><a data-editor-type="page" id="page-1">Home</a><a data-editor-type="page" id="page-2">Menu</a></div>
<div class="editable-style el-1 section-element" data-editor-id="el-1" data-editor-type="container-element">
  <div class="editable-style el-2 page-1 hero" data-editor-id="el-2" data-editor-type="text-element" data-editor-href="#!page-2"><div class="element-content">Welcome</div></div>
</div>
</body></html>`, saved)
}

func testIdentity() version.Identity {
	return version.Identity{
		Running:      versioning.V(2, 6, 2),
		MinSupported: versioning.V(2, 2, 7),
		FrontEnd:     versioning.AssetVersion{Major: 2, Minor: 7},
		RootURL:      "https://edit.example.com",
	}
}

func newUpgrader() *Upgrader {
	return New(testIdentity(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func parse(t *testing.T, s string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(s)
	require.NoError(t, err)
	return doc
}

func modelJSON(t *testing.T, w *model.Website) string {
	t.Helper()
	b, err := json.Marshal(w)
	require.NoError(t, err)
	return string(b)
}

func TestScenarioA_RejectsUnsupportedLegacy(t *testing.T) {
	doc := parse(t, legacyDoc("2.2.5"))
	before := doc.String()

	res, err := newUpgrader().Upgrade(context.Background(), doc, nil)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.IsUnsupportedLegacy(err))
	c, _ := errors.AsClassified(err)
	assert.Equal(t, errors.UnsupportedLegacyMessage, c.Message())
	assert.Equal(t, before, doc.String(), "rejected documents are not touched")
}

func TestScenarioB_MigratesFromLegacy(t *testing.T) {
	doc := parse(t, legacyDoc("2.2.9"))
	before := doc.String()

	res, err := newUpgrader().Upgrade(context.Background(), doc, nil)
	require.NoError(t, err)
	assert.Equal(t, before, doc.String(), "input document is not modified")
	assert.Equal(t, versioning.NeedsMigration, res.Classification)

	var targets []string
	for _, s := range res.Steps {
		targets = append(targets, s.Target.String())
	}
	assert.Equal(t, []string{"2.2.10", "2.2.11", "2.2.12", "2.2.13", "2.2.14"}, targets)
	assert.Contains(t, res.Report, "Version 2.2.10")
	assert.Contains(t, res.Report, "Version 2.2.14")
	assert.NotContains(t, res.Report, "Version 2.2.9")
	assert.NotContains(t, res.Report, "Version 2.2.8")

	assert.Equal(t, versioning.V(2, 6, 2), versioning.ReadMarker(res.Document))
	assert.True(t, island.Exists(res.Document))

	w := res.Website
	require.False(t, w.IsEmpty())
	assert.Len(t, w.Pages, 2)
	assert.NotNil(t, w.Element("body-initial"))
	assert.Equal(t, []string{"hero"}, w.Element("el-2").ClassList)
	assert.Equal(t, []string{"page-1"}, w.Element("el-2").PageNames)
	assert.Equal(t, &model.Link{Type: model.LinkPage, Target: "page-2"}, w.Element("el-2").Link)
	assert.Empty(t, w.Violations(legacy.DefaultTables().IsReserved))
}

func TestScenarioC_ObsoleteApp(t *testing.T) {
	doc := parse(t, legacyDoc("2.7.0"))
	res, err := newUpgrader().Upgrade(context.Background(), doc, nil)
	require.NoError(t, err)

	assert.Equal(t, versioning.ObsoleteApp, res.Classification)
	assert.Empty(t, res.Steps)
	assert.Contains(t, res.Report, "newer version of the editor")
	assert.Equal(t, versioning.V(2, 7, 0), versioning.ReadMarker(res.Document), "marker of a newer document is kept")
	assert.Equal(t, 1, res.Assets.Rewritten, "asset rewrite still runs")
	assert.NotEmpty(t, res.Fixups, "fix-up still runs")
	assert.False(t, island.Exists(res.Document))
}

func islandDoc(saved string) string {
	return fmt.Sprintf(`<html><head><meta name="generator" content="Site Editor v%s">`+
		`<script type="application/json" id="site-data-island">`+
		`{"fonts":["Lato"],"desktop":{},"mobile":{},"components":{},"styles":{},"breakpoints":{"tablet":768}}`+
		`</script></head><body></body></html>`, saved)
}

func islandSite() *model.Website {
	return &model.Website{
		Site:     &model.Site{Title: "x"},
		Pages:    []model.Page{{ID: "page-1"}},
		Elements: []model.Element{{ID: "el-1", Style: model.StyleSet{Desktop: model.Style{"width": "10px"}}}},
	}
}

func TestObsoleteAppKeepsIsland(t *testing.T) {
	doc := parse(t, islandDoc("2.7.0"))
	before, ok, err := island.Read(doc)
	require.NoError(t, err)
	require.True(t, ok)

	res, err := newUpgrader().Upgrade(context.Background(), doc, islandSite())
	require.NoError(t, err)
	require.Equal(t, versioning.ObsoleteApp, res.Classification)

	after, ok, err := island.Read(res.Document)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, before, after, "island of a newer editor is left as saved")
	assert.JSONEq(t, `{"tablet":768}`, string(after.Extra["breakpoints"]))
}

func TestUpToDateKeepsUnknownIslandKeys(t *testing.T) {
	res, err := newUpgrader().Upgrade(context.Background(), parse(t, islandDoc("2.6.2")), islandSite())
	require.NoError(t, err)
	require.Equal(t, versioning.UpToDate, res.Classification)

	after, ok, err := island.Read(res.Document)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.Style{"width": "10px"}, after.Desktop["el-1"], "island follows the model")
	assert.Empty(t, after.Fonts)
	assert.JSONEq(t, `{"tablet":768}`, string(after.Extra["breakpoints"]))
}

func TestScenarioD_AssetURL(t *testing.T) {
	res, err := newUpgrader().Upgrade(context.Background(), parse(t, legacyDoc("2.6.2")), nil)
	require.NoError(t, err)
	script := res.Document.SelectOne("script[data-static-asset]")
	assert.Equal(t, "https://edit.example.com/static/2.7/example/example.js", dom.Attr(script, "src"))
}

func TestScenarioE_DeletedPage(t *testing.T) {
	doc := parse(t, `<html><head><meta name="generator" content="Site Editor v2.6.2"></head><body></body></html>`)
	site := &model.Website{
		Site:  &model.Site{Title: "x"},
		Pages: []model.Page{{ID: "page-2"}},
		Elements: []model.Element{{
			ID: "el-1", ClassList: []string{"page-1", "foo"}, PageNames: []string{"page-1"},
		}},
	}
	res, err := newUpgrader().Upgrade(context.Background(), doc, site)
	require.NoError(t, err)
	assert.Equal(t, versioning.UpToDate, res.Classification)
	assert.Equal(t, []string{"foo"}, res.Website.Elements[0].ClassList)
	assert.NotContains(t, res.Website.Elements[0].PageNames, "page-1")
	assert.Equal(t, []string{"page-1", "foo"}, site.Elements[0].ClassList, "caller model is not modified")
}

func TestUpgradeIsIdempotent(t *testing.T) {
	for _, saved := range []string{"2.2.7", "2.2.9", "2.4.0"} {
		t.Run(saved, func(t *testing.T) {
			u := newUpgrader()
			first, err := u.Upgrade(context.Background(), parse(t, legacyDoc(saved)), nil)
			require.NoError(t, err)

			// Feed the saved form back in, as storage would.
			second, err := u.Upgrade(context.Background(), parse(t, first.Document.String()), first.Website)
			require.NoError(t, err)

			assert.Equal(t, versioning.UpToDate, second.Classification)
			assert.Empty(t, second.Steps)
			assert.Empty(t, second.Fixups)
			assert.Empty(t, second.Report)
			assert.False(t, second.Changed())
			assert.Equal(t, modelJSON(t, first.Website), modelJSON(t, second.Website))
			assert.Equal(t, first.Document.String(), second.Document.String())
		})
	}
}

func TestDecodeFailureKeepsCallerState(t *testing.T) {
	doc := parse(t, `<html><head><meta name="generator" content="Site Editor v2.2.9"></head><body>
<div class="editable-style" data-editor-id="el-1" data-editor-type="carousel"></div></body></html>`)
	before := doc.String()

	res, err := newUpgrader().Upgrade(context.Background(), doc, nil)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.IsDecodeError(err))
	assert.Equal(t, before, doc.String())
}

func TestCheck(t *testing.T) {
	saved, class := newUpgrader().Check(parse(t, legacyDoc("2.2.9")))
	assert.Equal(t, versioning.V(2, 2, 9), saved)
	assert.Equal(t, versioning.NeedsMigration, class)
}

func TestUpgradeHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newUpgrader().Upgrade(ctx, parse(t, legacyDoc("2.2.9")), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatch(t *testing.T) {
	jobs := []Job{
		{Name: "a", Document: parse(t, legacyDoc("2.2.9"))},
		{Name: "b", Document: parse(t, legacyDoc("2.2.5"))},
		{Name: "c", Document: parse(t, legacyDoc("2.6.2"))},
		{Name: "d", Document: parse(t, legacyDoc("2.2.7"))},
	}
	out := newUpgrader().Batch(context.Background(), jobs, 2)
	require.Len(t, out, 4)

	assert.Equal(t, "a", out[0].Name)
	require.NoError(t, out[0].Err)
	assert.Equal(t, versioning.NeedsMigration, out[0].Result.Classification)

	assert.True(t, errors.IsUnsupportedLegacy(out[1].Err))
	assert.Nil(t, out[1].Result)

	require.NoError(t, out[2].Err)
	assert.Equal(t, versioning.UpToDate, out[2].Result.Classification)

	require.NoError(t, out[3].Err)
	assert.Len(t, out[3].Result.Steps, 7)
}
