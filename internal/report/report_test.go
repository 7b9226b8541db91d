package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemigrate/internal/migration"
	"git.home.luguber.info/inful/sitemigrate/internal/versioning"
)

func TestEmptyReport(t *testing.T) {
	b := NewBuilder().Steps(nil).Fixups(nil).Assets(0)
	assert.True(t, b.Empty())
	html, err := b.HTML()
	require.NoError(t, err)
	assert.Empty(t, html)
}

func TestReportListsExecutedSteps(t *testing.T) {
	b := NewBuilder().
		Steps([]migration.StepResult{
			{Target: versioning.V(2, 2, 10), Name: "decode-legacy", Actions: []string{"Rebuilt the website."}},
			{Target: versioning.V(2, 2, 13), Name: "strip-type-attributes"},
		}).
		Fixups([]string{"Removed 1 reference(s) to deleted pages."}).
		Assets(3)

	md := b.Markdown()
	assert.Contains(t, md, "### Version 2.2.10")
	assert.Contains(t, md, "### Version 2.2.13")
	assert.NotContains(t, md, "2.2.9")
	assert.Contains(t, md, "No changes were needed.")
	assert.Contains(t, md, "Updated 3 static asset URL(s)")

	html, err := b.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, "<h3>Version 2.2.10</h3>")
	assert.Contains(t, html, "<li>Rebuilt the website.</li>")
}

func TestObsoleteWarning(t *testing.T) {
	html, err := NewBuilder().ObsoleteApp(versioning.V(2, 7, 0), versioning.V(2, 6, 2)).HTML()
	require.NoError(t, err)
	assert.Contains(t, html, "newer version of the editor (2.7.0)")
	assert.Contains(t, html, "<strong>Warning:</strong>")
}

func TestReportIsSanitised(t *testing.T) {
	html, err := NewBuilder().Warning(`Bad asset <script>alert(1)</script>`).HTML()
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "Bad asset")
}
