package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	sections      *prom.CounterVec
	pageDuration  prom.Histogram
	pageResults   *prom.CounterVec
	renderWorkers prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A registry holds at most one recorder; registering a second one panics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "simplistis",
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual build stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "simplistis",
		Name:      "build_duration_seconds",
		Help:      "Total build duration",
		Buckets:   prom.DefBuckets,
	})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "simplistis",
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "simplistis",
		Name:      "build_outcomes_total",
		Help:      "Build outcomes by final status",
	}, []string{"outcome"})
	pr.sections = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "simplistis",
		Name:      "sections_total",
		Help:      "Section directories by discovery outcome",
	}, []string{"result"})
	pr.pageDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "simplistis",
		Name:      "page_render_duration_seconds",
		Help:      "Duration of rendering and writing a single page",
		Buckets:   prom.ExponentialBuckets(0.0005, 2, 12),
	})
	pr.pageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "simplistis",
		Name:      "pages_total",
		Help:      "Rendered pages by result",
	}, []string{"result"})
	pr.renderWorkers = prom.NewGauge(prom.GaugeOpts{
		Namespace: "simplistis",
		Name:      "render_workers",
		Help:      "Render worker pool size used by the last build",
	})
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.sections, pr.pageDuration, pr.pageResults, pr.renderWorkers)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncSection(result SectionLabel) {
	if p == nil || p.sections == nil {
		return
	}
	p.sections.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObservePageRender(d time.Duration, result ResultLabel) {
	if p == nil || p.pageDuration == nil {
		return
	}
	p.pageDuration.Observe(d.Seconds())
	p.pageResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) SetRenderWorkers(n int) {
	if p == nil || p.renderWorkers == nil {
		return
	}
	p.renderWorkers.Set(float64(n))
}
