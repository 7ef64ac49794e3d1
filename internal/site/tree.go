// Package site builds the page tree from a directory layout.
//
// A directory is a section when it holds the index content file and a page
// template. The root directory must be a section; its direct child
// directories become child sections when they qualify. Content files inside
// a section become leaf pages when the section has a content template.
package site

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/simplistis/internal/content"
)

// Layout names the reserved files of a section directory.
type Layout struct {
	IndexFile         string
	PageTemplate      string
	ContentTemplate   string
	ContentExtensions []string
}

// DefaultLayout returns the conventional layout names.
func DefaultLayout() Layout {
	return Layout{
		IndexFile:         "_index.md",
		PageTemplate:      "template",
		ContentTemplate:   "content",
		ContentExtensions: []string{".md", ".markdown"},
	}
}

// Selection is the content-file filter implied by the layout.
func (l Layout) Selection() content.Selection {
	return content.Selection{
		IndexFile:     l.IndexFile,
		ReservedStems: []string{l.PageTemplate, l.ContentTemplate},
		Extensions:    l.ContentExtensions,
	}
}

// PageNode is one page to render.
type PageNode struct {
	Route         string
	Content       *content.Unit
	TemplateBody  string
	TemplatePath  string
	IsSectionRoot bool
	Children      []*PageNode
}

// Slug is the slug of the node's content.
func (n *PageNode) Slug() string {
	return n.Content.Metadata().Slug
}

// PageTree is the whole site. Root.Route is always "/".
type PageTree struct {
	Root *PageNode
}

// Walk visits every node depth-first, parents before children. It stops at
// the first error fn returns.
func (t *PageTree) Walk(fn func(*PageNode) error) error {
	if t == nil || t.Root == nil {
		return nil
	}
	return walk(t.Root, fn)
}

func walk(n *PageNode, fn func(*PageNode) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Nodes returns every node in Walk order.
func (t *PageTree) Nodes() []*PageNode {
	var nodes []*PageNode
	_ = t.Walk(func(n *PageNode) error {
		nodes = append(nodes, n)
		return nil
	})
	return nodes
}

// Sections counts section roots, including the root itself.
func (t *PageTree) Sections() int {
	count := 0
	for _, n := range t.Nodes() {
		if n.IsSectionRoot {
			count++
		}
	}
	return count
}

// Fprint writes an indented outline of the tree.
func (t *PageTree) Fprint(w io.Writer) error {
	return t.Walk(func(n *PageNode) error {
		depth := strings.Count(strings.Trim(n.Route, "/"), "/")
		if n.Route != "/" {
			depth++
		}
		kind := "page"
		if n.IsSectionRoot {
			kind = "section"
		}
		_, err := fmt.Fprintf(w, "%s%s  [%s] %q  template=%s  source=%s\n",
			strings.Repeat("  ", depth), n.Route, kind, n.Content.Metadata().Title,
			filepath.Base(n.TemplatePath), n.Content.SourcePath())
		return err
	})
}
