package metrics

import (
	"sync"
	"time"
)

// testRecorder counts calls; used to check the Recorder contract compiles
// against a hand-written implementation.
type testRecorder struct {
	mu       sync.Mutex
	steps    map[string]map[ResultLabel]int
	outcomes map[OutcomeLabel]int
}

var _ Recorder = (*testRecorder)(nil)
var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)

func (t *testRecorder) ObserveStepDuration(string, time.Duration) {}
func (t *testRecorder) ObserveUpgradeDuration(time.Duration)      {}
func (t *testRecorder) IncStepResult(step string, result ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.steps == nil {
		t.steps = map[string]map[ResultLabel]int{}
	}
	if t.steps[step] == nil {
		t.steps[step] = map[ResultLabel]int{}
	}
	t.steps[step][result]++
}
func (t *testRecorder) IncUpgradeOutcome(o OutcomeLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.outcomes == nil {
		t.outcomes = map[OutcomeLabel]int{}
	}
	t.outcomes[o]++
}
func (t *testRecorder) AddAssetRewrites(int, int) {}
func (t *testRecorder) SetBatchConcurrency(int)   {}
