// Package upgrade composes version classification, migration steps, fix-up
// and asset rewriting into the single upgrade applied to a saved document.
package upgrade

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitemigrate/internal/assets"
	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/fixup"
	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrate/internal/island"
	"git.home.luguber.info/inful/sitemigrate/internal/legacy"
	"git.home.luguber.info/inful/sitemigrate/internal/logfields"
	"git.home.luguber.info/inful/sitemigrate/internal/metrics"
	"git.home.luguber.info/inful/sitemigrate/internal/migration"
	"git.home.luguber.info/inful/sitemigrate/internal/model"
	"git.home.luguber.info/inful/sitemigrate/internal/report"
	"git.home.luguber.info/inful/sitemigrate/internal/version"
	"git.home.luguber.info/inful/sitemigrate/internal/versioning"
)

// Result is the outcome of one successful upgrade.
type Result struct {
	RunID          string
	Report         string
	Website        *model.Website
	Document       *dom.Document
	Classification versioning.Classification
	Saved          versioning.Tuple
	Running        versioning.Tuple
	Steps          []migration.StepResult
	Fixups         []string
	Assets         assets.Result
	Duration       time.Duration
}

// Changed reports whether the upgrade modified anything.
func (r *Result) Changed() bool {
	return len(r.Steps) > 0 || len(r.Fixups) > 0 || r.Assets.Rewritten > 0 || r.Saved != r.Running
}

// Upgrader runs the upgrade pipeline. It holds no per-document state and is
// safe for concurrent use.
type Upgrader struct {
	identity version.Provider
	registry *migration.Registry
	tables   *legacy.Tables
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option configures an Upgrader.
type Option func(*Upgrader)

// WithRegistry replaces the built-in migration steps.
func WithRegistry(r *migration.Registry) Option {
	return func(u *Upgrader) { u.registry = r }
}

// WithTables replaces the legacy lookup tables.
func WithTables(t *legacy.Tables) Option {
	return func(u *Upgrader) { u.tables = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(u *Upgrader) { u.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(u *Upgrader) { u.recorder = r }
}

// New returns an Upgrader for the given application identity.
func New(identity version.Provider, opts ...Option) *Upgrader {
	u := &Upgrader{
		identity: identity,
		registry: migration.DefaultRegistry(),
		tables:   legacy.DefaultTables(),
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.identity == nil {
		u.identity = version.DefaultIdentity()
	}
	return u
}

// Identity returns the identity the upgrader migrates towards.
func (u *Upgrader) Identity() version.Identity {
	return u.identity.Identity()
}

// Check reads the saved version and classifies it without touching doc.
func (u *Upgrader) Check(doc *dom.Document) (versioning.Tuple, versioning.Classification) {
	id := u.identity.Identity()
	saved := versioning.ReadMarker(doc)
	return saved, versioning.Classify(saved, id.Running, id.MinSupported)
}

// Upgrade brings doc and its model up to the running format. Neither argument
// is modified: the result carries upgraded copies. On a fatal error the result
// is nil and the caller keeps what it had.
func (u *Upgrader) Upgrade(ctx context.Context, doc *dom.Document, site *model.Website) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	id := u.identity.Identity()
	saved, class := u.Check(doc)
	runID := uuid.NewString()
	log := u.logger.With(
		logfields.RunID(runID),
		logfields.SavedVersion(saved.String()),
		logfields.RunningVersion(id.Running.String()),
		logfields.Classification(string(class)),
	)

	if class == versioning.UnsupportedLegacy {
		log.Warn("Rejecting document below the minimum supported version",
			slog.String("min_supported", id.MinSupported.String()))
		u.recorder.IncUpgradeOutcome(metrics.OutcomeRejected)
		return nil, errors.UnsupportedLegacyVersion(saved.String(), id.MinSupported.String())
	}

	res := &Result{
		RunID:          runID,
		Document:       doc.Clone(),
		Website:        site.Clone(),
		Classification: class,
		Saved:          saved,
		Running:        id.Running,
	}
	if res.Website == nil {
		res.Website = &model.Website{}
	}
	rb := report.NewBuilder()

	switch class {
	case versioning.ObsoleteApp:
		log.Warn("Document was saved by a newer editor; skipping migration")
		rb.ObsoleteApp(saved, id.Running)
	case versioning.NeedsMigration:
		sc := &migration.StepContext{
			Doc:     res.Document,
			Website: res.Website,
			Decoder: legacy.NewDecoder(u.tables, log),
			Logger:  log,
		}
		steps, err := u.registry.Run(sc, saved, id.Running)
		if err != nil {
			u.recorder.IncUpgradeOutcome(metrics.OutcomeFailed)
			return nil, err
		}
		if sc.Website != nil {
			res.Website = sc.Website
		}
		res.Steps = steps
		rb.Steps(steps)
		for _, s := range steps {
			u.recorder.ObserveStepDuration(s.Name, s.Duration)
			label := metrics.ResultApplied
			if len(s.Actions) == 0 {
				label = metrics.ResultNoop
			}
			u.recorder.IncStepResult(s.Name, label)
		}
	}

	res.Fixups = fixup.New(u.tables, log).Run(res.Document, res.Website)
	rb.Fixups(res.Fixups)

	res.Assets = assets.NewRewriter(id.RootURL, id.FrontEnd, log).Rewrite(res.Document)
	rb.Assets(res.Assets.Rewritten)
	u.recorder.AddAssetRewrites(res.Assets.Rewritten, len(res.Assets.Warnings))

	// A newer editor's island and marker are left as saved.
	if class != versioning.ObsoleteApp {
		if !res.Website.IsEmpty() {
			if _, err := island.Sync(res.Document, res.Website); err != nil {
				u.recorder.IncUpgradeOutcome(metrics.OutcomeFailed)
				return nil, errors.WrapError(err, errors.CategoryInternal, "could not update the data island").Build()
			}
		}
		versioning.StampMarker(res.Document, id.Running)
	}

	html, err := rb.HTML()
	if err != nil {
		u.recorder.IncUpgradeOutcome(metrics.OutcomeFailed)
		return nil, errors.WrapError(err, errors.CategoryInternal, "could not render the upgrade report").Build()
	}
	res.Report = html
	res.Duration = time.Since(start)

	u.recorder.ObserveUpgradeDuration(res.Duration)
	u.recorder.IncUpgradeOutcome(outcomeFor(class))
	log.Info("Document upgrade finished",
		slog.Int("steps", len(res.Steps)),
		slog.Int("fixups", len(res.Fixups)),
		slog.Int("assets", res.Assets.Rewritten),
		logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	return res, nil
}

func outcomeFor(c versioning.Classification) metrics.OutcomeLabel {
	switch c {
	case versioning.NeedsMigration:
		return metrics.OutcomeUpgraded
	case versioning.ObsoleteApp:
		return metrics.OutcomeObsolete
	default:
		return metrics.OutcomeUpToDate
	}
}
