package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/simplistis/internal/config"
	"git.home.luguber.info/inful/simplistis/internal/content"
	serrors "git.home.luguber.info/inful/simplistis/internal/errors"
	"git.home.luguber.info/inful/simplistis/internal/frontmatter"
	"git.home.luguber.info/inful/simplistis/internal/logfields"
	"git.home.luguber.info/inful/simplistis/internal/markdown"
	"git.home.luguber.info/inful/simplistis/internal/metadata"
	"git.home.luguber.info/inful/simplistis/internal/metrics"
	"git.home.luguber.info/inful/simplistis/internal/render"
	"git.home.luguber.info/inful/simplistis/internal/site"
)

// Stage names used in logs and metrics.
const (
	StageLayout = "layout"
	StageClean  = "clean"
	StageRender = "render"
)

// Service executes builds for one configuration.
type Service struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder metrics.Recorder
	now      func() time.Time
}

// NewService creates a service. A nil cfg means config.Default() and a nil
// logger means slog.Default().
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		logger:   logger,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
}

// WithRecorder sets the metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithClock replaces the clock that supplies the build time (for testing).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Run executes the pipeline: layout → clean → render.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	buildTime := s.now()
	result := &Result{
		BuildID:   uuid.NewString(),
		StartTime: startTime,
	}
	logger := s.logger.With(logfields.BuildID(result.BuildID))

	finish := func(status Status, outcome string, err error) (*Result, error) {
		result.Status = status
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		s.recorder.IncBuildOutcome(outcome)
		s.recorder.ObserveBuildDuration(result.Duration)
		logger.Info("Build finished",
			slog.String("status", string(status)),
			logfields.DurationMS(float64(result.Duration.Microseconds())/1000))
		return result, err
	}

	src, out, err := resolveDirs(req.SourceDir, req.OutputDir)
	if err != nil {
		return finish(StatusFailed, metrics.BuildOutcomeFailed, err)
	}
	result.OutputPath = out

	// Stage 1: page tree
	stageStart := time.Now()
	builder, err := s.newBuilder(buildTime, logger)
	if err != nil {
		return finish(StatusFailed, metrics.BuildOutcomeFailed, err)
	}
	logger.Info("Building page tree", logfields.Stage(StageLayout), logfields.Path(src))
	tree, err := builder.FromRoot(src)
	s.recorder.ObserveStageDuration(StageLayout, time.Since(stageStart))
	if err != nil {
		s.recorder.IncStageResult(StageLayout, metrics.ResultFailed)
		return finish(StatusFailed, metrics.BuildOutcomeFailed, err)
	}
	s.recorder.IncStageResult(StageLayout, metrics.ResultSuccess)
	result.Tree = tree

	if req.DryRun {
		logger.Info("Dry run; nothing written", logfields.Count(len(tree.Nodes())))
		return finish(StatusSuccess, metrics.BuildOutcomeSuccess, nil)
	}
	if err := ctx.Err(); err != nil {
		return finish(StatusCanceled, metrics.BuildOutcomeCanceled, err)
	}

	// Stage 2: output directory
	stageStart = time.Now()
	if err := s.prepareOutput(out, logger); err != nil {
		s.recorder.IncStageResult(StageClean, metrics.ResultFailed)
		return finish(StatusFailed, metrics.BuildOutcomeFailed, err)
	}
	s.recorder.ObserveStageDuration(StageClean, time.Since(stageStart))
	s.recorder.IncStageResult(StageClean, metrics.ResultSuccess)

	// Stage 3: render
	stageStart = time.Now()
	renderer := render.NewRenderer(render.Options{
		Workers: s.cfg.Render.Workers,
		OnError: render.ErrorPolicy(s.cfg.Render.OnError),
		Site:    render.SiteInfo{Title: s.cfg.Site.Title, BaseURL: s.cfg.Site.BaseURL},
		Build:   render.BuildInfo{ID: result.BuildID, Time: buildTime},
	}, logger, s.recorder)
	report, err := renderer.RenderTree(ctx, tree, out)
	s.recorder.ObserveStageDuration(StageRender, time.Since(stageStart))
	result.Report = report

	switch {
	case err == nil:
		s.recorder.IncStageResult(StageRender, metrics.ResultSuccess)
		return finish(StatusSuccess, metrics.BuildOutcomeSuccess, nil)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		s.recorder.IncStageResult(StageRender, metrics.ResultCanceled)
		return finish(StatusCanceled, metrics.BuildOutcomeCanceled, err)
	case report != nil && len(report.Rendered) > 0:
		s.recorder.IncStageResult(StageRender, metrics.ResultWarning)
		return finish(StatusPartial, metrics.BuildOutcomeWarning, err)
	default:
		s.recorder.IncStageResult(StageRender, metrics.ResultFailed)
		return finish(StatusFailed, metrics.BuildOutcomeFailed, err)
	}
}

func (s *Service) newBuilder(buildTime time.Time, logger *slog.Logger) (*site.Builder, error) {
	conv, err := markdown.NewConverter(markdown.Options{
		Features:  s.cfg.Markdown.Features,
		HardWraps: s.cfg.Markdown.HardWraps,
		Unsafe:    s.cfg.Markdown.Unsafe,
	})
	if err != nil {
		return nil, serrors.Wrap(err, serrors.CategoryConfig, serrors.SeverityFatal, "markdown configuration invalid")
	}

	layout := site.Layout{
		IndexFile:         s.cfg.Layout.IndexFile,
		PageTemplate:      s.cfg.Layout.PageTemplate,
		ContentTemplate:   s.cfg.Layout.ContentTemplate,
		ContentExtensions: s.cfg.Layout.ContentExtensions,
	}
	extractor := metadata.NewExtractor(
		frontmatter.Format(s.cfg.FrontMatter.Format),
		func() time.Time { return buildTime },
		logger,
	)
	loader := content.NewLoader(extractor, conv, layout.Selection(), logger)
	return site.NewBuilder(loader, layout, logger, s.recorder), nil
}

func (s *Service) prepareOutput(out string, logger *slog.Logger) error {
	if s.cfg.Output.Clean {
		if _, err := os.Stat(out); err == nil {
			logger.Info("Cleaning output directory", logfields.Stage(StageClean), logfields.Path(out))
			if err := os.RemoveAll(out); err != nil {
				return serrors.OutputFailed(out, fmt.Errorf("clean output directory: %w", err))
			}
		}
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return serrors.OutputFailed(out, fmt.Errorf("create output directory: %w", err))
	}
	return nil
}

// resolveDirs makes both directories absolute and refuses an output
// directory that is, or contains, the source directory.
func resolveDirs(sourceDir, outputDir string) (string, string, error) {
	if sourceDir == "" {
		return "", "", serrors.ValidationFailed("source", "template root is required")
	}
	if outputDir == "" {
		return "", "", serrors.ValidationFailed("output", "output root is required")
	}
	src, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", "", serrors.Wrap(err, serrors.CategoryValidation, serrors.SeverityFatal, "invalid template root").
			WithContext("path", sourceDir)
	}
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return "", "", serrors.Wrap(err, serrors.CategoryValidation, serrors.SeverityFatal, "invalid output root").
			WithContext("path", outputDir)
	}
	rel, err := filepath.Rel(out, src)
	if err == nil && (rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))) {
		return "", "", serrors.ValidationFailed("output", "output root must not be or contain the template root").
			WithContext("path", out)
	}
	return src, out, nil
}
