// Package markdown converts Markdown bodies to HTML with goldmark and pulls
// plain-text summaries out of the rendered HTML.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Feature names accepted in Options.Features.
const (
	FeatureGFM            = "gfm"
	FeatureFootnote       = "footnote"
	FeatureTypographer    = "typographer"
	FeatureDefinitionList = "definition_list"
	FeatureHeadingIDs     = "heading_ids"
)

// Options selects goldmark extensions and renderer behaviour.
type Options struct {
	Features  []string
	HardWraps bool
	// Unsafe lets raw HTML in the body through to the output.
	Unsafe bool
}

// DefaultOptions matches the default markdown configuration.
func DefaultOptions() Options {
	return Options{Features: []string{FeatureGFM, FeatureHeadingIDs}}
}

// Converter renders Markdown to HTML. It is safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// NewConverter builds a goldmark pipeline for opts. Unknown features are
// rejected.
func NewConverter(opts Options) (*Converter, error) {
	var (
		exts       []goldmark.Extender
		parserOpts []parser.Option
		renderOpts []renderer.Option
	)
	for _, f := range opts.Features {
		switch f {
		case FeatureGFM:
			exts = append(exts, extension.GFM)
		case FeatureFootnote:
			exts = append(exts, extension.Footnote)
		case FeatureTypographer:
			exts = append(exts, extension.Typographer)
		case FeatureDefinitionList:
			exts = append(exts, extension.DefinitionList)
		case FeatureHeadingIDs:
			parserOpts = append(parserOpts, parser.WithAutoHeadingID())
		default:
			return nil, fmt.Errorf("unknown markdown feature %q", f)
		}
	}
	if opts.HardWraps {
		renderOpts = append(renderOpts, gmhtml.WithHardWraps())
	}
	if opts.Unsafe {
		renderOpts = append(renderOpts, gmhtml.WithUnsafe())
	}

	return &Converter{md: goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(renderOpts...),
	)}, nil
}

// ToHTML converts a Markdown body (front matter already removed).
func (c *Converter) ToHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// Summary returns the whitespace-collapsed text of the first paragraph in
// an HTML fragment, or "" when there is none.
func Summary(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	p := findFirst(doc, atom.P)
	if p == nil {
		return ""
	}
	var sb strings.Builder
	collectText(p, &sb)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
