// Package metrics provides observability hooks for upgrade runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	upgrader := upgrade.New(identity, upgrade.WithRecorder(metrics.NoopRecorder{}))
//
// To export metrics, inject a PrometheusRecorder and serve its registry:
//
//	reg := prom.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	http.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
