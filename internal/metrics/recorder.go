package metrics

import "time"

// ResultLabel enumerates step result categories for counters.
type ResultLabel string

const (
	ResultApplied ResultLabel = "applied"
	ResultNoop    ResultLabel = "noop"
)

// OutcomeLabel enumerates the final status of one document upgrade.
type OutcomeLabel string

const (
	OutcomeUpgraded OutcomeLabel = "upgraded"
	OutcomeUpToDate OutcomeLabel = "up_to_date"
	OutcomeObsolete OutcomeLabel = "obsolete_app"
	OutcomeRejected OutcomeLabel = "rejected"
	OutcomeFailed   OutcomeLabel = "failed"
)

// Recorder defines observability hooks for upgrade metrics. Implementations
// must be safe for concurrent use.
type Recorder interface {
	ObserveStepDuration(step string, d time.Duration)
	ObserveUpgradeDuration(d time.Duration)
	IncStepResult(step string, result ResultLabel)
	IncUpgradeOutcome(outcome OutcomeLabel)
	AddAssetRewrites(rewritten, malformed int)
	SetBatchConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, time.Duration) {}
func (NoopRecorder) ObserveUpgradeDuration(time.Duration)      {}
func (NoopRecorder) IncStepResult(string, ResultLabel)         {}
func (NoopRecorder) IncUpgradeOutcome(OutcomeLabel)            {}
func (NoopRecorder) AddAssetRewrites(int, int)                 {}
func (NoopRecorder) SetBatchConcurrency(int)                   {}
