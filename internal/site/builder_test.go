package site

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/simplistis/internal/content"
	serrors "git.home.luguber.info/inful/simplistis/internal/errors"
	"git.home.luguber.info/inful/simplistis/internal/frontmatter"
	"git.home.luguber.info/inful/simplistis/internal/markdown"
	"git.home.luguber.info/inful/simplistis/internal/metadata"
	"git.home.luguber.info/inful/simplistis/internal/metrics"
	"git.home.luguber.info/inful/simplistis/internal/testutil"
)

type sectionCounter struct {
	metrics.NoopRecorder
	mu     sync.Mutex
	counts map[metrics.SectionLabel]int
}

func (s *sectionCounter) IncSection(l metrics.SectionLabel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = map[metrics.SectionLabel]int{}
	}
	s.counts[l]++
}

func newTestBuilder(t *testing.T) (*Builder, *bytes.Buffer, *sectionCounter) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	conv, err := markdown.NewConverter(markdown.DefaultOptions())
	require.NoError(t, err)
	now := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	layout := DefaultLayout()
	loader := content.NewLoader(metadata.NewExtractor(frontmatter.FormatTOML, now, logger), conv, layout.Selection(), logger)
	rec := &sectionCounter{}
	return NewBuilder(loader, layout, logger, rec), &logs, rec
}

func TestFromRoot_EndToEndFixture(t *testing.T) {
	b, _, rec := newTestBuilder(t)
	root := t.TempDir()
	testutil.WriteTree(t, root, testutil.BlogSite())

	tree, err := b.FromRoot(root)
	require.NoError(t, err)

	require.Equal(t, "/", tree.Root.Route)
	assert.True(t, tree.Root.IsSectionRoot)
	assert.Equal(t, "Home", tree.Root.Content.Metadata().Title)
	require.Len(t, tree.Root.Children, 1)

	blog := tree.Root.Children[0]
	assert.Equal(t, "/blog", blog.Route)
	assert.True(t, blog.IsSectionRoot)
	assert.Equal(t, testutil.BlogSite()["blog/template.x"], blog.TemplateBody)
	require.Len(t, blog.Children, 1)

	leaf := blog.Children[0]
	assert.Equal(t, "/blog/test-hello", leaf.Route)
	assert.False(t, leaf.IsSectionRoot)
	assert.Equal(t, "Hello World!", leaf.Content.Metadata().Title)
	assert.Len(t, leaf.Content.Metadata().Tags, 3)
	assert.Equal(t, filepath.Join(root, "blog", "content.x"), leaf.TemplatePath)

	assert.Equal(t, 2, rec.counts[metrics.SectionIncluded])
	assert.Len(t, tree.Nodes(), 3)
	assert.Equal(t, 2, tree.Sections())
}

func TestFromRoot_DirectoryWithoutIndexExcluded(t *testing.T) {
	b, logs, rec := newTestBuilder(t)
	root := t.TempDir()
	files := testutil.BlogSite()
	files["assets/logo.md"] = "not a section"
	files["notes/_index.md"] = "no template here"
	testutil.WriteTree(t, root, files)

	tree, err := b.FromRoot(root)
	require.NoError(t, err)

	require.Len(t, tree.Root.Children, 1)
	assert.Equal(t, "/blog", tree.Root.Children[0].Route)
	assert.Equal(t, 2, rec.counts[metrics.SectionSkipped])
	assert.Contains(t, logs.String(), "section=assets")
	assert.Contains(t, logs.String(), "section=notes")
}

func TestFromRoot_RootLeavesHaveNoDoubleSlash(t *testing.T) {
	b, _, _ := newTestBuilder(t)
	root := t.TempDir()
	files := testutil.BlogSite()
	files["content.html"] = "<p>{{.title}}</p>"
	files["about.md"] = "About us"
	testutil.WriteTree(t, root, files)

	tree, err := b.FromRoot(root)
	require.NoError(t, err)

	require.Len(t, tree.Root.Children, 2)
	assert.Equal(t, "/about", tree.Root.Children[0].Route)
	assert.Equal(t, "/blog", tree.Root.Children[1].Route)
}

func TestFromRoot_SectionCollidingWithRootPageIsSkipped(t *testing.T) {
	b, logs, _ := newTestBuilder(t)
	root := t.TempDir()
	files := testutil.BlogSite()
	files["content.html"] = "{{.content}}"
	files["blog.md"] = "A root page that claims /blog"
	testutil.WriteTree(t, root, files)

	tree, err := b.FromRoot(root)
	require.NoError(t, err)

	require.Len(t, tree.Root.Children, 1)
	assert.False(t, tree.Root.Children[0].IsSectionRoot)
	assert.Contains(t, logs.String(), "already taken")
}

func TestFromRoot_MissingRootFilesAreFatal(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		wantPath string
	}{
		{"missing index", map[string]string{"template.x": "t"}, "_index.md"},
		{"missing template", map[string]string{"_index.md": "home"}, "template.*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, _ := newTestBuilder(t)
			root := t.TempDir()
			testutil.WriteTree(t, root, tt.files)

			tree, err := b.FromRoot(root)
			require.Error(t, err)
			assert.Nil(t, tree)

			se, ok := serrors.As(err)
			require.True(t, ok)
			assert.Equal(t, serrors.CategoryLayout, se.Category)
			assert.True(t, serrors.IsFatal(err))
			assert.Equal(t, filepath.Join(root, tt.wantPath), se.Context["path"])
		})
	}
}

func TestFromRoot_RootNotADirectory(t *testing.T) {
	b, _, _ := newTestBuilder(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := b.FromRoot(file)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryLayout))

	_, err = b.FromRoot(filepath.Join(t.TempDir(), "absent"))
	assert.True(t, serrors.IsCategory(err, serrors.CategoryLayout))
}

func TestParseSection_Sentinels(t *testing.T) {
	b, _, _ := newTestBuilder(t)
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"noindex/template.x":   "t",
		"notemplate/_index.md": "i",
	})

	node, err := b.ParseSection(root, filepath.Join(root, "noindex"))
	assert.Nil(t, node)
	assert.True(t, errors.Is(err, ErrMissingIndex))

	node, err = b.ParseSection(root, filepath.Join(root, "notemplate"))
	assert.Nil(t, node)
	assert.True(t, errors.Is(err, ErrMissingTemplate))
}

func TestParseSection_ContentWithoutContentTemplate(t *testing.T) {
	b, logs, _ := newTestBuilder(t)
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"_index.md":  "home",
		"template.x": "t",
		"post.md":    "a post",
	})

	node, err := b.ParseSection(root, root)
	require.NoError(t, err)
	assert.Equal(t, "/", node.Route)
	assert.Empty(t, node.Children)
	assert.Contains(t, logs.String(), "No content template")
}

func TestParseSection_SkipsUnsafeAndDuplicateSlugs(t *testing.T) {
	b, logs, _ := newTestBuilder(t)
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"docs/_index.md":  "docs",
		"docs/template.x": "t",
		"docs/content.x":  "c",
		"docs/a.md":       "---\nslug = \"same\"\n---\nA",
		"docs/b.md":       "---\nslug = \"same\"\n---\nB",
		"docs/c.md":       "---\nslug = \"../escape\"\n---\nC",
		"docs/d.md":       "---\nslug = \"..\"\n---\nD",
		"docs/e.md":       "plain",
	})

	node, err := b.ParseSection(root, filepath.Join(root, "docs"))
	require.NoError(t, err)

	var routes []string
	for _, c := range node.Children {
		routes = append(routes, c.Route)
	}
	assert.Equal(t, []string{"/docs/same", "/docs/e"}, routes)
	assert.Contains(t, logs.String(), "duplicate route")
	assert.Contains(t, logs.String(), "unusable slug")
}

func TestFindTemplate_FirstMatchWins(t *testing.T) {
	b, logs, _ := newTestBuilder(t)
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"template.b": "b", "template.a": "a", "templates.x": "no"})

	path, err := b.findTemplate(dir, "template")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "template.a"), path)
	assert.Contains(t, logs.String(), "Several templates match")
}

func TestPageTree_Fprint(t *testing.T) {
	b, _, _ := newTestBuilder(t)
	root := t.TempDir()
	testutil.WriteTree(t, root, testutil.BlogSite())
	tree, err := b.FromRoot(root)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, tree.Fprint(&out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "/  [section]"))
	assert.True(t, strings.HasPrefix(lines[1], "  /blog  [section]"))
	assert.True(t, strings.HasPrefix(lines[2], "    /blog/test-hello  [page] \"Hello World!\""))
}

func TestPageTree_WalkStopsOnError(t *testing.T) {
	leaf := &PageNode{Route: "/a/b"}
	tree := &PageTree{Root: &PageNode{Route: "/", Children: []*PageNode{{Route: "/a", Children: []*PageNode{leaf}}, {Route: "/c"}}}}
	stop := errors.New("stop")

	var seen []string
	err := tree.Walk(func(n *PageNode) error {
		seen = append(seen, n.Route)
		if n == leaf {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"/", "/a", "/a/b"}, seen)

	var empty *PageTree
	assert.NoError(t, empty.Walk(func(*PageNode) error { return stop }))
}
