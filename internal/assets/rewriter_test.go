package assets

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrate/internal/versioning"
)

func newRewriter() *Rewriter {
	return NewRewriter("https://edit.example.com/", versioning.AssetVersion{Major: 2, Minor: 7},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRewriteURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"//host/static/2.1/example/example.js", "https://edit.example.com/static/2.7/example/example.js", true},
		{"http://localhost:6805/static/2.6/css/site.css", "https://edit.example.com/static/2.7/css/site.css", true},
		{"/static/1.0/a/b/c.png", "https://edit.example.com/static/2.7/a/b/c.png", true},
		{"https://cdn.example.com/lib.js", "https://cdn.example.com/lib.js", false},
		{"/static/only-version", "/static/only-version", false},
	}
	r := newRewriter()
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := r.RewriteURL(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.HasSeverity(err, errors.SeverityWarning))
			}
		})
	}
}

func TestRewriteDocument(t *testing.T) {
	doc, err := dom.ParseString(`<html><head>
<link data-static-asset href="//host/static/2.1/css/site.css" rel="stylesheet">
<script data-static-asset src="//host/static/2.1/js/app.js"></script>
<script data-static-asset src="https://cdn.example.com/x.js"></script>
<script src="//host/static/2.1/js/untouched.js"></script>
</head></html>`)
	require.NoError(t, err)

	r := newRewriter()
	res := r.Rewrite(doc)
	assert.Equal(t, 2, res.Rewritten)
	assert.Equal(t, 1, res.Unchanged)
	assert.Len(t, res.Warnings, 1)

	assert.Equal(t, "https://edit.example.com/static/2.7/css/site.css", dom.Attr(doc.SelectOne("link"), "href"))
	assert.Equal(t, "//host/static/2.1/js/untouched.js", dom.Attr(doc.Select("script")[2], "src"))

	again := r.Rewrite(doc)
	assert.Zero(t, again.Rewritten, "rewriting is idempotent")
}
