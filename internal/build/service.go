package build

import (
	"time"

	"git.home.luguber.info/inful/simplistis/internal/render"
	"git.home.luguber.info/inful/simplistis/internal/site"
)

// Request contains the inputs of one build.
type Request struct {
	// SourceDir is the template root holding _index.md and the page template.
	SourceDir string

	// OutputDir receives one HTML file per page.
	OutputDir string

	// DryRun builds the page tree without touching OutputDir.
	DryRun bool
}

// Result contains the outcome of a build.
type Result struct {
	// BuildID uniquely identifies this run in logs and templates.
	BuildID string

	Status Status

	// Tree is the page tree, set once the layout stage succeeded.
	Tree *site.PageTree

	// Report holds per-page outcomes; nil for dry runs and failed layouts.
	Report *render.Report

	// OutputPath is the absolute output directory.
	OutputPath string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Status represents the outcome of a build.
type Status string

const (
	// StatusSuccess indicates every page was written (or, for dry runs, the
	// tree was built).
	StatusSuccess Status = "success"

	// StatusPartial indicates some pages were written and some failed.
	StatusPartial Status = "partial"

	// StatusFailed indicates the build produced nothing usable.
	StatusFailed Status = "failed"

	// StatusCanceled indicates the context was canceled mid-build.
	StatusCanceled Status = "canceled"
)

// IsSuccess reports whether the build completed without page failures.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
