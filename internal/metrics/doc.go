// Package metrics provides the observability hooks for site builds.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	svc := build.NewService(cfg).WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// A command-line build has no scrape endpoint, so the Prometheus recorder is
// exported once at the end of the run with WriteTextfile, in the text
// exposition format understood by the node_exporter textfile collector.
package metrics
