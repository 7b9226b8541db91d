package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrate/internal/history"
)

func savedDoc(saved string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en"><head><meta name="generator" content="Site Editor v%s"><title>Shop</title></head><body>
<div class="legacy-pages"><a data-editor-type="page" id="page-1">Home</a></div>
<div class="editable-style el-1" data-editor-id="el-1" data-editor-type="text-element"><div class="element-content">Hi</div></div>
</body></html>`, saved)
}

type harness struct {
	cli  *CLI
	g    *Global
	out  *bytes.Buffer
	docs string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	docs := filepath.Join(dir, "websites")
	require.NoError(t, os.MkdirAll(docs, 0o750))
	cfgPath := filepath.Join(dir, "sitemigrate.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`version: "1.0"
storage:
  documents_dir: %q
  history_db: %q
monitoring:
  logging:
    level: error
`, docs, filepath.Join(dir, "history.db"))), 0o600))

	out := &bytes.Buffer{}
	h := &harness{cli: &CLI{Config: cfgPath}, g: &Global{Out: out}, out: out, docs: docs}
	require.NoError(t, h.cli.AfterApply(h.g))
	require.NotNil(t, h.g.Logger)
	return h
}

func (h *harness) put(t *testing.T, name, saved string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(h.docs, name+".html"), []byte(savedDoc(saved)), 0o600))
}

func TestUpgradeCommand(t *testing.T) {
	h := newHarness(t)
	h.put(t, "shop", "2.2.9")
	report := filepath.Join(t.TempDir(), "report.html")

	cmd := &UpgradeCmd{Name: "shop", Report: report}
	require.NoError(t, cmd.Run(h.g, h.cli))
	assert.Contains(t, h.out.String(), "shop: 2.2.9 -> 2.6.2 (needs_migration)")
	assert.Contains(t, h.out.String(), "saved")

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Website upgraded")

	html, err := os.ReadFile(filepath.Join(h.docs, "shop.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Site Editor v2.6.2")
	_, err = os.Stat(filepath.Join(h.docs, "shop.site.json"))
	require.NoError(t, err)
}

func TestUpgradeCommandDryRun(t *testing.T) {
	h := newHarness(t)
	h.put(t, "shop", "2.2.9")
	before, err := os.ReadFile(filepath.Join(h.docs, "shop.html"))
	require.NoError(t, err)

	require.NoError(t, (&UpgradeCmd{Name: "shop", DryRun: true}).Run(h.g, h.cli))
	assert.Contains(t, h.out.String(), "would change")
	assert.Contains(t, h.out.String(), "2.2.10 decode-legacy")

	after, err := os.ReadFile(filepath.Join(h.docs, "shop.html"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpgradeCommandRejectsAncientDocument(t *testing.T) {
	h := newHarness(t)
	h.put(t, "old", "2.0.0")

	err := (&UpgradeCmd{Name: "old"}).Run(h.g, h.cli)
	require.Error(t, err)
	assert.True(t, errors.IsUnsupportedLegacy(err))
	assert.Equal(t, 3, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestUpgradeCommandMissingDocument(t *testing.T) {
	h := newHarness(t)
	err := (&UpgradeCmd{Name: "ghost"}).Run(h.g, h.cli)
	require.Error(t, err)
	assert.Equal(t, 9, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestCheckCommand(t *testing.T) {
	h := newHarness(t)
	h.put(t, "a", "2.2.9")
	h.put(t, "b", "2.6.2")
	h.put(t, "c", "3.0.0")

	require.NoError(t, (&CheckCmd{}).Run(h.g, h.cli))
	out := h.out.String()
	assert.Contains(t, out, "a\t2.2.9\tneeds_migration")
	assert.Contains(t, out, "b\t2.6.2\tup_to_date")
	assert.Contains(t, out, "c\t3.0.0\tobsolete_app")
}

func TestBatchAndHistoryCommands(t *testing.T) {
	h := newHarness(t)
	h.put(t, "a", "2.2.9")
	h.put(t, "b", "2.4.0")
	h.put(t, "old", "2.1.0")

	err := (&BatchCmd{Concurrency: 2}).Run(h.g, h.cli)
	require.Error(t, err, "one website is too old")
	assert.Contains(t, h.out.String(), "3 websites, 1 failed")

	h.out.Reset()
	require.NoError(t, (&HistoryCmd{JSON: true}).Run(h.g, h.cli))
	var runs []history.Run
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &runs))
	require.Len(t, runs, 3)
	outcomes := map[string]string{}
	for _, r := range runs {
		outcomes[r.Document] = r.Outcome
	}
	assert.Equal(t, map[string]string{
		"a":   history.OutcomeUpgraded,
		"b":   history.OutcomeUpgraded,
		"old": history.OutcomeRejected,
	}, outcomes)

	h.out.Reset()
	require.NoError(t, (&HistoryCmd{Name: "a", Limit: 5}).Run(h.g, h.cli))
	assert.Contains(t, h.out.String(), "DOCUMENT")
	assert.Contains(t, h.out.String(), "upgraded")
	assert.NotContains(t, h.out.String(), "rejected")
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.yaml")
	out := &bytes.Buffer{}
	cli := &CLI{Config: path}
	g := &Global{Out: out}

	require.NoError(t, (&InitCmd{}).Run(g, cli))
	assert.Contains(t, out.String(), "initialized successfully")
	_, err := os.Stat(path)
	require.NoError(t, err)

	err = (&InitCmd{}).Run(g, cli)
	require.Error(t, err)
	assert.Equal(t, 7, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	require.NoError(t, (&InitCmd{Force: true}).Run(g, cli))
}

func TestInvalidConfigIsReportedByCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\neditor:\n  root_url: relative\n"), 0o600))
	cli := &CLI{Config: path}
	g := &Global{Out: &bytes.Buffer{}}
	require.NoError(t, cli.AfterApply(g), "logging still comes up")

	err := (&CheckCmd{}).Run(g, cli)
	require.Error(t, err)
	assert.Equal(t, 7, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}
