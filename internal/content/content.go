// Package content loads Markdown content files into immutable units.
package content

import (
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/simplistis/internal/markdown"
	"git.home.luguber.info/inful/simplistis/internal/metadata"
)

// Unit is one content file: its metadata and its Markdown body with the
// front matter removed.
type Unit struct {
	body        string
	metadata    metadata.Metadata
	sourcePath  string
	frontMatter string
	converter   *markdown.Converter
}

// NewUnit assembles a unit directly; used when content does not come from
// disk.
func NewUnit(sourcePath string, md metadata.Metadata, body, frontMatter string, conv *markdown.Converter) *Unit {
	return &Unit{
		body:        body,
		metadata:    md,
		sourcePath:  sourcePath,
		frontMatter: frontMatter,
		converter:   conv,
	}
}

func (u *Unit) Body() string                { return u.body }
func (u *Unit) Metadata() metadata.Metadata { return u.metadata }
func (u *Unit) SourcePath() string          { return u.sourcePath }
func (u *Unit) FrontMatter() string         { return u.frontMatter }

// ToHTML renders the body. The result is not cached.
func (u *Unit) ToHTML() (string, error) {
	return u.converter.ToHTML(u.body)
}

// Summary is the plain text of the first rendered paragraph.
func (u *Unit) Summary() string {
	out, err := u.ToHTML()
	if err != nil {
		return ""
	}
	return markdown.Summary(out)
}

// Fingerprint hashes the front-matter block and body.
func (u *Unit) Fingerprint() string {
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(u.frontMatter, "\n"), u.body)
}
