// Package runner applies the upgrade to stored documents: it loads a bundle,
// upgrades it, writes it back when something changed, records the run and
// publishes an event.
package runner

import (
	"bytes"
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrate/internal/history"
	"git.home.luguber.info/inful/sitemigrate/internal/logfields"
	"git.home.luguber.info/inful/sitemigrate/internal/notify"
	"git.home.luguber.info/inful/sitemigrate/internal/storage"
	"git.home.luguber.info/inful/sitemigrate/internal/upgrade"
	"git.home.luguber.info/inful/sitemigrate/internal/versioning"
)

// Outcome describes what happened to one stored document.
type Outcome struct {
	Name   string
	Result *upgrade.Result
	Run    history.Run
	// Saved is true when the upgraded bundle was written back.
	Saved bool
	// Hash is the content hash of the stored document after the run.
	Hash string
	Err  error
}

// Runner ties the upgrader to storage, history and notifications.
type Runner struct {
	store    storage.DocumentStore
	upgrader *upgrade.Upgrader
	history  history.Store
	notifier *notify.Notifier
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithHistory records every run in h.
func WithHistory(h history.Store) Option {
	return func(r *Runner) { r.history = h }
}

// WithNotifier publishes every run through n.
func WithNotifier(n *notify.Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New returns a Runner over store.
func New(store storage.DocumentStore, u *upgrade.Upgrader, opts ...Option) *Runner {
	r := &Runner{store: store, upgrader: u, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.notifier == nil {
		r.notifier = notify.NewNotifier(nil, r.logger)
	}
	return r
}

// Store returns the underlying document store.
func (r *Runner) Store() storage.DocumentStore { return r.store }

// Check loads name and classifies its saved version without upgrading it.
func (r *Runner) Check(ctx context.Context, name string) (versioning.Tuple, versioning.Classification, error) {
	_, doc, err := r.load(ctx, name)
	if err != nil {
		return versioning.Tuple{}, "", err
	}
	saved, class := r.upgrader.Check(doc)
	return saved, class, nil
}

// Upgrade upgrades the stored document name. With dryRun the store is left
// untouched and nothing is recorded.
func (r *Runner) Upgrade(ctx context.Context, name string, dryRun bool) (*Outcome, error) {
	b, doc, err := r.load(ctx, name)
	if err != nil {
		return &Outcome{Name: name, Err: err}, err
	}
	res, uerr := r.upgrader.Upgrade(ctx, doc, b.Website)
	out := r.finish(ctx, b, res, uerr, dryRun)
	return out, out.Err
}

// Batch upgrades the named documents with at most concurrency upgrades
// running at once. Outcomes are returned in the order of names.
func (r *Runner) Batch(ctx context.Context, names []string, concurrency int, dryRun bool) []*Outcome {
	outs := make([]*Outcome, len(names))
	bundles := make(map[string]*storage.Bundle, len(names))
	var jobs []upgrade.Job
	index := make(map[int]int, len(names))
	for i, name := range names {
		b, doc, err := r.load(ctx, name)
		if err != nil {
			outs[i] = &Outcome{Name: name, Err: err}
			continue
		}
		bundles[name] = b
		index[len(jobs)] = i
		jobs = append(jobs, upgrade.Job{Name: name, Document: doc, Website: b.Website})
	}

	for j, o := range r.upgrader.Batch(ctx, jobs, concurrency) {
		outs[index[j]] = r.finish(ctx, bundles[o.Name], o.Result, o.Err, dryRun)
	}
	return outs
}

func (r *Runner) load(ctx context.Context, name string) (*storage.Bundle, *dom.Document, error) {
	b, err := r.store.Load(ctx, name)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, nil, errors.WrapError(err, errors.CategoryNotFound, "document not found").
				WithContext("document", name).Build()
		}
		return nil, nil, errors.WrapError(err, errors.CategoryStorage, "could not load document").
			WithContext("document", name).Build()
	}
	doc, err := dom.Parse(bytes.NewReader(b.HTML))
	if err != nil {
		return nil, nil, errors.WrapError(err, errors.CategoryDecode, "could not parse document").
			WithContext("document", name).Build()
	}
	return b, doc, nil
}

func (r *Runner) finish(ctx context.Context, b *storage.Bundle, res *upgrade.Result, uerr error, dryRun bool) *Outcome {
	running := r.upgrader.Identity().Running
	out := &Outcome{
		Name:   b.Name,
		Result: res,
		Run:    history.FromResult(b.Name, running, res, uerr),
		Hash:   b.Hash,
		Err:    uerr,
	}
	log := r.logger.With(logfields.Document(b.Name))
	if dryRun {
		return out
	}

	if uerr == nil {
		rendered := []byte(res.Document.String())
		if res.Changed() || !bytes.Equal(rendered, b.HTML) {
			updated := &storage.Bundle{Name: b.Name, HTML: rendered, Website: res.Website}
			if err := r.store.Save(ctx, updated); err != nil {
				out.Err = errors.WrapError(err, errors.CategoryStorage, "could not save upgraded document").
					WithContext("document", b.Name).Build()
				out.Run.Outcome = history.OutcomeFailed
				out.Run.Error = out.Err.Error()
			} else {
				out.Saved = true
				out.Hash = updated.Hash
			}
		}
	}

	if r.history != nil {
		if _, err := r.history.Record(ctx, out.Run); err != nil {
			log.Warn("Failed to record upgrade run", logfields.Error(err))
		}
	}
	r.notifier.Notify(ctx, notify.FromRun(out.Run))
	return out
}
