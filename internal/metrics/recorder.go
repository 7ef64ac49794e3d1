package metrics

import "time"

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// SectionLabel enumerates section discovery outcomes.
type SectionLabel string

const (
	SectionIncluded SectionLabel = "included"
	SectionSkipped  SectionLabel = "skipped"
)

// Build outcome values passed to IncBuildOutcome.
const (
	BuildOutcomeSuccess  = "success"
	BuildOutcomeWarning  = "warning"
	BuildOutcomeFailed   = "failed"
	BuildOutcomeCanceled = "canceled"
)

// Recorder defines observability hooks for build, stage and page metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. Every
// implementation must be safe for concurrent use by render workers.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // one of the BuildOutcome* values
	IncSection(result SectionLabel)
	ObservePageRender(d time.Duration, result ResultLabel)
	SetRenderWorkers(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)   {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)           {}
func (NoopRecorder) IncStageResult(string, ResultLabel)           {}
func (NoopRecorder) IncBuildOutcome(string)                       {}
func (NoopRecorder) IncSection(SectionLabel)                      {}
func (NoopRecorder) ObservePageRender(time.Duration, ResultLabel) {}
func (NoopRecorder) SetRenderWorkers(int)                         {}
