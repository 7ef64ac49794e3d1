// Package render executes page templates over a PageTree and writes one
// HTML file per node.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	serrors "git.home.luguber.info/inful/simplistis/internal/errors"
	"git.home.luguber.info/inful/simplistis/internal/logfields"
	"git.home.luguber.info/inful/simplistis/internal/metrics"
	"git.home.luguber.info/inful/simplistis/internal/site"
)

// ErrorPolicy decides what happens after a node fails.
type ErrorPolicy string

const (
	// PolicyContinue renders every node and collects failures.
	PolicyContinue ErrorPolicy = "continue"
	// PolicyAbort stops scheduling nodes after the first failure.
	PolicyAbort ErrorPolicy = "abort"
)

// SiteInfo is exposed to templates as .site.
type SiteInfo struct {
	Title   string
	BaseURL string
}

// BuildInfo is exposed to templates as .build.
type BuildInfo struct {
	ID   string
	Time time.Time
}

// Options configures a Renderer.
type Options struct {
	// Workers bounds concurrent renders; 0 means runtime.NumCPU().
	Workers int
	OnError ErrorPolicy
	Site    SiteInfo
	Build   BuildInfo
}

// Output is a successfully written node.
type Output struct {
	Route string
	Path  string
}

// Failure is a node that could not be rendered or written.
type Failure struct {
	Route string
	Err   error
}

// Report summarises one RenderTree call. Entries follow tree order.
type Report struct {
	Rendered []Output
	Failures []Failure
	// Skipped counts nodes never attempted because of abort or cancellation.
	Skipped  int
	Duration time.Duration
}

// Renderer renders page trees.
type Renderer struct {
	opts     Options
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewRenderer creates a renderer. Nil logger and recorder fall back to
// slog.Default() and a no-op recorder.
func NewRenderer(opts Options, logger *slog.Logger, recorder metrics.Recorder) *Renderer {
	if opts.OnError == "" {
		opts.OnError = PolicyContinue
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Renderer{opts: opts, logger: logger, recorder: recorder}
}

func (r *Renderer) workers() int {
	if r.opts.Workers > 0 {
		return r.opts.Workers
	}
	return runtime.NumCPU()
}

type nodeResult struct {
	attempted bool
	path      string
	err       error
}

// RenderTree renders every node of tree into outputDir. It returns the
// report together with an error when any node failed or ctx was canceled.
func (r *Renderer) RenderTree(ctx context.Context, tree *site.PageTree, outputDir string) (*Report, error) {
	start := time.Now()
	nodes := tree.Nodes()
	results := make([]nodeResult, len(nodes))
	workers := r.workers()
	r.recorder.SetRenderWorkers(workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, node := range nodes {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			nodeStart := time.Now()
			path, err := r.RenderNode(node, outputDir)
			results[i] = nodeResult{attempted: true, path: path, err: err}
			if err != nil {
				r.recorder.ObservePageRender(time.Since(nodeStart), metrics.ResultFailed)
				r.logger.Error("Page render failed",
					logfields.Route(node.Route),
					logfields.Template(node.TemplatePath),
					logfields.Error(err))
				if r.opts.OnError == PolicyAbort {
					return err
				}
				return nil
			}
			r.recorder.ObservePageRender(time.Since(nodeStart), metrics.ResultSuccess)
			r.logger.Debug("Rendered page",
				logfields.Route(node.Route),
				logfields.Output(path),
				logfields.Elapsed(nodeStart))
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{}
	for i, res := range results {
		switch {
		case !res.attempted:
			report.Skipped++
		case res.err != nil:
			report.Failures = append(report.Failures, Failure{Route: nodes[i].Route, Err: res.err})
		default:
			report.Rendered = append(report.Rendered, Output{Route: nodes[i].Route, Path: res.path})
		}
	}
	report.Duration = time.Since(start)

	r.logger.Info("Rendered page tree",
		logfields.Count(len(report.Rendered)),
		slog.Int("failed", len(report.Failures)),
		slog.Int("skipped", report.Skipped),
		logfields.Worker(workers),
		logfields.Elapsed(start))

	if len(report.Failures) > 0 {
		return report, r.failureError(report, len(nodes))
	}
	if err := ctx.Err(); err != nil {
		return report, serrors.Wrap(err, serrors.CategoryBuild, serrors.SeverityFatal, "rendering canceled").
			WithContext("skipped", report.Skipped)
	}
	return report, nil
}

func (r *Renderer) failureError(report *Report, total int) error {
	errs := make([]error, 0, len(report.Failures))
	for _, f := range report.Failures {
		errs = append(errs, f.Err)
	}
	category := serrors.GetCategory(report.Failures[0].Err)
	msg := fmt.Sprintf("%d of %d pages failed to render", len(report.Failures), total)
	return serrors.Wrap(errors.Join(errs...), category, serrors.SeverityError, msg).
		WithContext("route", report.Failures[0].Route)
}
