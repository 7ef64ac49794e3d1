package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeySection    = "section"
	KeyRoute      = "route"
	KeySlug       = "slug"
	KeyTemplate   = "template"
	KeyOutput     = "output"
	KeyWorker     = "worker"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func Route(r string) slog.Attr        { return slog.String(KeyRoute, r) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func Template(t string) slog.Attr     { return slog.String(KeyTemplate, t) }
func Output(o string) slog.Attr       { return slog.String(KeyOutput, o) }
func Worker(n int) slog.Attr          { return slog.Int(KeyWorker, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }

// Elapsed reports the time since start in milliseconds.
func Elapsed(start time.Time) slog.Attr {
	return DurationMS(float64(time.Since(start).Microseconds()) / 1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
