// Package assets repoints version-pinned static asset URLs at the running
// server and front-end version.
package assets

import (
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrate/internal/logfields"
	"git.home.luguber.info/inful/sitemigrate/internal/versioning"
)

// AttrStaticAsset marks elements whose src or href is a static asset.
const AttrStaticAsset = "data-static-asset"

var staticRe = regexp.MustCompile(`^.*?/static/[^/]+/(.+)$`)

// Rewriter rewrites static asset URLs.
type Rewriter struct {
	rootURL  string
	frontEnd versioning.AssetVersion
	logger   *slog.Logger
}

// Result summarises a rewrite run.
type Result struct {
	Rewritten int     `json:"rewritten"`
	Unchanged int     `json:"unchanged"`
	Warnings  []error `json:"-"`
}

// NewRewriter returns a rewriter targeting rootURL and frontEnd.
func NewRewriter(rootURL string, frontEnd versioning.AssetVersion, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{
		rootURL:  strings.TrimRight(rootURL, "/"),
		frontEnd: frontEnd,
		logger:   logger,
	}
}

// RewriteURL maps ".../static/<any>/<path>" to "<root>/static/<M.m>/<path>".
// URLs outside that layout are returned unchanged with a warning error.
func (r *Rewriter) RewriteURL(u string) (string, error) {
	m := staticRe.FindStringSubmatch(strings.TrimSpace(u))
	if m == nil {
		return u, errors.MalformedAssetURL(u)
	}
	return r.rootURL + "/static/" + r.frontEnd.String() + "/" + m[1], nil
}

// Rewrite updates every static asset in doc. It never fails: malformed URLs
// are logged, collected in Result.Warnings and left untouched.
func (r *Rewriter) Rewrite(doc *dom.Document) Result {
	var res Result
	for _, n := range doc.FindAll(func(n *html.Node) bool { return dom.HasAttr(n, AttrStaticAsset) }) {
		key := "src"
		if !dom.HasAttr(n, key) {
			key = "href"
		}
		old, ok := dom.LookupAttr(n, key)
		if !ok || old == "" {
			continue
		}
		updated, err := r.RewriteURL(old)
		if err != nil {
			r.logger.Warn("Leaving malformed static asset URL unchanged", logfields.URL(old))
			res.Warnings = append(res.Warnings, err)
			res.Unchanged++
			continue
		}
		if updated == old {
			res.Unchanged++
			continue
		}
		dom.SetAttr(n, key, updated)
		res.Rewritten++
	}
	if res.Rewritten > 0 {
		r.logger.Debug("Rewrote static asset URLs", logfields.Count(res.Rewritten))
	}
	return res
}
