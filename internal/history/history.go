// Package history keeps a durable log of upgrade runs so operators can see
// when and how each saved document was migrated.
package history

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrate/internal/upgrade"
	"git.home.luguber.info/inful/sitemigrate/internal/versioning"
)

// Outcome values stored for each run.
const (
	OutcomeUpgraded = "upgraded"
	OutcomeUpToDate = "up_to_date"
	OutcomeObsolete = "obsolete_app"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Run is one recorded upgrade attempt.
type Run struct {
	ID             int64     `json:"id"`
	RunID          string    `json:"run_id"`
	Document       string    `json:"document"`
	Saved          string    `json:"saved"`
	Running        string    `json:"running"`
	Classification string    `json:"classification"`
	Steps          []string  `json:"steps,omitempty"`
	Fixups         int       `json:"fixups"`
	Assets         int       `json:"assets"`
	Outcome        string    `json:"outcome"`
	Error          string    `json:"error,omitempty"`
	Time           time.Time `json:"time"`
}

// Store persists runs.
type Store interface {
	// Record appends a run and returns its row id.
	Record(ctx context.Context, run Run) (int64, error)

	// List returns the most recent runs for document, newest first. An empty
	// document lists runs for every document. limit <= 0 means no limit.
	List(ctx context.Context, document string, limit int) ([]Run, error)

	// Close releases resources.
	Close() error
}

// FromResult builds the run record for one call to Upgrader.Upgrade. Exactly
// one of res and err is expected to be non-nil.
func FromResult(document string, running versioning.Tuple, res *upgrade.Result, err error) Run {
	run := Run{
		Document: document,
		Running:  running.String(),
		Time:     time.Now().UTC(),
	}
	if err != nil {
		run.Error = err.Error()
		run.Outcome = OutcomeFailed
		if errors.IsUnsupportedLegacy(err) {
			run.Outcome = OutcomeRejected
			run.Classification = string(versioning.UnsupportedLegacy)
		}
		return run
	}
	if res == nil {
		run.Outcome = OutcomeFailed
		return run
	}
	run.RunID = res.RunID
	run.Saved = res.Saved.String()
	run.Running = res.Running.String()
	run.Classification = string(res.Classification)
	run.Fixups = len(res.Fixups)
	run.Assets = res.Assets.Rewritten
	for _, s := range res.Steps {
		run.Steps = append(run.Steps, s.Name)
	}
	switch res.Classification {
	case versioning.NeedsMigration:
		run.Outcome = OutcomeUpgraded
	case versioning.ObsoleteApp:
		run.Outcome = OutcomeObsolete
	default:
		run.Outcome = OutcomeUpToDate
	}
	return run
}
