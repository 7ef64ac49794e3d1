// Package metadata turns the front-matter block of a content file into a
// Metadata record with defaults applied.
package metadata

import (
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/simplistis/internal/frontmatter"
	"git.home.luguber.info/inful/simplistis/internal/logfields"
)

// Metadata describes one piece of content.
type Metadata struct {
	Title     string
	Slug      string
	Author    *string
	Tags      []string
	UpdatedAt time.Time
	// Params holds every decoded front-matter key, recognised or not.
	Params map[string]any
}

// document is the decoding target; pointer fields distinguish absent keys
// from empty ones.
type document struct {
	Title     *string    `toml:"title" yaml:"title"`
	Slug      *string    `toml:"slug" yaml:"slug"`
	Author    *string    `toml:"author" yaml:"author"`
	Tags      []string   `toml:"tags" yaml:"tags"`
	UpdatedAt *time.Time `toml:"updated_at" yaml:"updated_at"`
}

// Extraction is the complete outcome of extracting one document.
type Extraction struct {
	Metadata Metadata
	Body     string
	// Block is the raw front-matter text that was removed from the body.
	Block string
	// Err is the problem that forced default metadata, if any. It is
	// informational: extraction never fails.
	Err error
}

// Extractor splits and decodes front matter in a fixed format.
type Extractor struct {
	Format frontmatter.Format
	// Now supplies the UpdatedAt default. Nil means time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// NewExtractor creates an extractor for the given format.
func NewExtractor(format frontmatter.Format, now func() time.Time, logger *slog.Logger) *Extractor {
	return &Extractor{Format: format, Now: now, Logger: logger}
}

// Extract returns the metadata and the remaining body of raw. Slug and
// Title fall back to fallbackName when absent.
func (e *Extractor) Extract(raw, fallbackName string) (Metadata, string) {
	x := e.ExtractSource("", raw, fallbackName)
	return x.Metadata, x.Body
}

// ExtractSource is Extract with the full result. source only labels log
// records.
func (e *Extractor) ExtractSource(source, raw, fallbackName string) Extraction {
	block := frontmatter.Split(raw)
	out := Extraction{
		Metadata: e.defaults(fallbackName),
		Body:     block.Body,
		Block:    block.Raw,
	}
	if !block.Had {
		return out
	}

	var doc document
	if err := frontmatter.Decode(e.Format, block.Raw, &doc); err != nil {
		out.Err = err
		if termErr := block.Err(); termErr != nil {
			out.Err = errors.Join(termErr, err)
		}
		e.logger().Warn("Front matter could not be decoded; using defaults",
			logfields.File(source),
			slog.String("format", string(e.Format)),
			logfields.Error(out.Err))
		return out
	}
	if termErr := block.Err(); termErr != nil {
		out.Err = termErr
		e.logger().Warn("Front matter block is not terminated; body is empty",
			logfields.File(source),
			logfields.Error(termErr))
	}

	params, err := frontmatter.DecodeParams(e.Format, block.Raw)
	if err != nil {
		// Unreachable in practice: the typed decode above already succeeded.
		params = map[string]any{}
	}

	md := &out.Metadata
	md.Params = params
	if doc.Title != nil && *doc.Title != "" {
		md.Title = *doc.Title
	}
	if doc.Slug != nil && *doc.Slug != "" {
		md.Slug = *doc.Slug
	}
	md.Author = doc.Author
	md.Tags = doc.Tags
	if doc.UpdatedAt != nil {
		md.UpdatedAt = *doc.UpdatedAt
	}
	return out
}

func (e *Extractor) defaults(fallbackName string) Metadata {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return Metadata{
		Title:     fallbackName,
		Slug:      fallbackName,
		UpdatedAt: now(),
		Params:    map[string]any{},
	}
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
