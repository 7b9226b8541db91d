package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitemigrate"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stepDuration     *prom.HistogramVec
	upgradeDuration  prom.Histogram
	stepResults      *prom.CounterVec
	upgradeOutcome   *prom.CounterVec
	assetRewrites    *prom.CounterVec
	batchConcurrency prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stepDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of individual migration steps",
			Buckets:   prom.DefBuckets,
		}, []string{"step"}),
		upgradeDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "upgrade_duration_seconds",
			Help:      "Total duration of one document upgrade",
			Buckets:   prom.DefBuckets,
		}),
		stepResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "step_results_total",
			Help:      "Migration step results by outcome",
		}, []string{"step", "result"}),
		upgradeOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "upgrade_outcomes_total",
			Help:      "Document upgrades by final status",
		}, []string{"outcome"}),
		assetRewrites: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "asset_urls_total",
			Help:      "Static asset URLs seen by the rewriter",
		}, []string{"result"}),
		batchConcurrency: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_concurrency",
			Help:      "Worker count of the last batch run",
		}),
	}
	reg.MustRegister(pr.stepDuration, pr.upgradeDuration, pr.stepResults, pr.upgradeOutcome, pr.assetRewrites, pr.batchConcurrency)
	return pr
}

func (p *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	if p == nil {
		return
	}
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveUpgradeDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.upgradeDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(step string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stepResults.WithLabelValues(step, string(result)).Inc()
}

func (p *PrometheusRecorder) IncUpgradeOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.upgradeOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddAssetRewrites(rewritten, malformed int) {
	if p == nil {
		return
	}
	p.assetRewrites.WithLabelValues("rewritten").Add(float64(rewritten))
	p.assetRewrites.WithLabelValues("malformed").Add(float64(malformed))
}

func (p *PrometheusRecorder) SetBatchConcurrency(n int) {
	if p == nil {
		return
	}
	p.batchConcurrency.Set(float64(n))
}
