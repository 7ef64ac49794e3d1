package render

import (
	"bytes"
	"context"
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
	"git.home.luguber.info/inful/simplistis/internal/markdown"
	"git.home.luguber.info/inful/simplistis/internal/metadata"
	"git.home.luguber.info/inful/simplistis/internal/metrics"
	"git.home.luguber.info/inful/simplistis/internal/site"
	"git.home.luguber.info/inful/simplistis/internal/testutil"
)

var testTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type pageCounter struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	results map[metrics.ResultLabel]int
	workers int
}

func (p *pageCounter) ObservePageRender(_ time.Duration, l metrics.ResultLabel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.results == nil {
		p.results = map[metrics.ResultLabel]int{}
	}
	p.results[l]++
}

func (p *pageCounter) SetRenderWorkers(n int) { p.workers = n }

func unit(t *testing.T, slug, title, body string) *content.Unit {
	t.Helper()
	conv, err := markdown.NewConverter(markdown.DefaultOptions())
	require.NoError(t, err)
	author := "fauh45"
	md := metadata.Metadata{
		Title:     title,
		Slug:      slug,
		Author:    &author,
		Tags:      []string{"a", "b", "c"},
		UpdatedAt: testTime,
		Params:    map[string]any{"custom": "value"},
	}
	return content.NewUnit(slug+".md", md, body, "", conv)
}

func fixtureTree(t *testing.T, leafTemplate string) *site.PageTree {
	t.Helper()
	leaf := &site.PageNode{
		Route:        "/blog/test-hello",
		Content:      unit(t, "test-hello", "Hello World!", "# Hello\n\nFirst words."),
		TemplateBody: leafTemplate,
		TemplatePath: "blog/content.x",
	}
	blog := &site.PageNode{
		Route:         "/blog",
		Content:       unit(t, "_index", "Blog", "Posts"),
		TemplateBody:  `<ul>{{range .children}}<li><a href="{{url .route}}">{{.title}}</a> {{.summary}}</li>{{end}}</ul>`,
		TemplatePath:  "blog/template.x",
		IsSectionRoot: true,
		Children:      []*site.PageNode{leaf},
	}
	root := &site.PageNode{
		Route:         "/",
		Content:       unit(t, "_index", "Home", "Welcome"),
		TemplateBody:  `<title>{{.site.title}}: {{.title}}</title>{{.content}}`,
		TemplatePath:  "template.x",
		IsSectionRoot: true,
		Children:      []*site.PageNode{blog},
	}
	return &site.PageTree{Root: root}
}

func newTestRenderer(opts Options) (*Renderer, *bytes.Buffer, *pageCounter) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rec := &pageCounter{}
	if opts.Site.Title == "" {
		opts.Site = SiteInfo{Title: "My Site", BaseURL: "https://example.org/"}
	}
	opts.Build = BuildInfo{ID: "build-1", Time: testTime}
	return NewRenderer(opts, logger, rec), &logs, rec
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRenderTree_EndToEnd(t *testing.T) {
	r, _, rec := newTestRenderer(Options{Workers: 2})
	out := t.TempDir()
	tree := fixtureTree(t, `<h1>{{.title}}</h1><p>{{join ", " .tags}}</p>{{.content}}`)

	report, err := r.RenderTree(context.Background(), tree, out)
	require.NoError(t, err)
	require.Len(t, report.Rendered, 3)
	assert.Empty(t, report.Failures)
	assert.Zero(t, report.Skipped)

	assert.Equal(t, []Output{
		{Route: "/", Path: filepath.Join(out, "_index.html")},
		{Route: "/blog", Path: filepath.Join(out, "blog", "_index.html")},
		{Route: "/blog/test-hello", Path: filepath.Join(out, "blog", "test-hello", "test-hello.html")},
	}, report.Rendered)

	leaf := readFile(t, filepath.Join(out, "blog", "test-hello", "test-hello.html"))
	assert.Contains(t, leaf, "<h1>Hello World!</h1>")
	assert.Contains(t, leaf, "<p>a, b, c</p>")
	assert.Contains(t, leaf, `<h1 id="hello">Hello</h1>`)

	home := readFile(t, filepath.Join(out, "_index.html"))
	assert.Contains(t, home, "<title>My Site: Home</title>")

	blog := readFile(t, filepath.Join(out, "blog", "_index.html"))
	assert.Contains(t, blog, `<a href="https://example.org/blog/test-hello">Hello World!</a> First words.`)

	assert.Equal(t, 3, rec.results[metrics.ResultSuccess])
	assert.Equal(t, 2, rec.workers)
}

func TestRenderTree_FailingNodeDoesNotBlockOthers(t *testing.T) {
	r, logs, rec := newTestRenderer(Options{Workers: 1, OnError: PolicyContinue})
	out := t.TempDir()
	tree := fixtureTree(t, `{{.title`)

	report, err := r.RenderTree(context.Background(), tree, out)
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryTemplate))

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "/blog/test-hello", report.Failures[0].Route)
	assert.Len(t, report.Rendered, 2)

	assert.FileExists(t, filepath.Join(out, "_index.html"))
	assert.FileExists(t, filepath.Join(out, "blog", "_index.html"))
	assert.NoFileExists(t, filepath.Join(out, "blog", "test-hello", "test-hello.html"))
	assert.NoDirExists(t, filepath.Join(out, "blog", "test-hello"))

	assert.Equal(t, 1, rec.results[metrics.ResultFailed])
	assert.Contains(t, logs.String(), "route=/blog/test-hello")
}

func TestRenderTree_ExecutionErrorLeavesNoPartialFile(t *testing.T) {
	r, _, _ := newTestRenderer(Options{Workers: 1})
	out := t.TempDir()
	// Output is produced before the failing call.
	tree := fixtureTree(t, `<p>partial</p>{{index .tags 10}}`)

	report, err := r.RenderTree(context.Background(), tree, out)
	require.Error(t, err)
	require.Len(t, report.Failures, 1)

	testutil.NewFileAssertions(t, out).
		AssertNoTempFiles().
		AssertFileExists("blog/_index.html").
		AssertFileNotExists("blog/test-hello/test-hello.html")
}

func TestRenderTree_AbortStopsScheduling(t *testing.T) {
	r, _, _ := newTestRenderer(Options{Workers: 1, OnError: PolicyAbort})
	out := t.TempDir()
	tree := fixtureTree(t, `{{.content}}`)
	tree.Root.TemplateBody = `{{template "missing"}}`

	report, err := r.RenderTree(context.Background(), tree, out)
	require.Error(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "/", report.Failures[0].Route)
	assert.Empty(t, report.Rendered)
	assert.Equal(t, 2, report.Skipped)
}

func TestRenderTree_CanceledContext(t *testing.T) {
	r, _, _ := newTestRenderer(Options{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := r.RenderTree(ctx, fixtureTree(t, `{{.content}}`), t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 3, report.Skipped)
}

func TestRenderNode_ContextKeys(t *testing.T) {
	r, _, _ := newTestRenderer(Options{})
	out := t.TempDir()
	tree := fixtureTree(t, strings.Join([]string{
		`slug={{.slug}}`,
		`author={{.author}}`,
		`route={{.route}}`,
		`section={{.is_section}}`,
		`updated={{date "2006-01-02" .updated_at}}`,
		`custom={{.params.custom}}`,
		`build={{.build.id}}`,
		`base={{.site.base_url}}`,
		`upper={{title "hello world"}}`,
		`summary={{.summary}}`,
		`fp={{if .fingerprint}}yes{{end}}`,
		`children={{len .children}}`,
	}, "\n"))
	leaf := tree.Root.Children[0].Children[0]

	path, err := r.RenderNode(leaf, out)
	require.NoError(t, err)

	got := readFile(t, path)
	for _, want := range []string{
		"slug=test-hello",
		"author=fauh45",
		"route=/blog/test-hello",
		"section=false",
		"updated=2024-05-01",
		"custom=value",
		"build=build-1",
		"base=https://example.org/",
		"upper=Hello World",
		"summary=First words.",
		"fp=yes",
		"children=0",
	} {
		assert.Contains(t, got, want)
	}
}

func TestRenderNode_EscapesMetadataButNotContent(t *testing.T) {
	r, _, _ := newTestRenderer(Options{})
	node := &site.PageNode{
		Route:        "/x",
		Content:      unit(t, "x", "<script>alert(1)</script>", "**bold**"),
		TemplateBody: `{{.title}}|{{.content}}`,
	}

	path, err := r.RenderNode(node, t.TempDir())
	require.NoError(t, err)
	got := readFile(t, path)
	assert.Contains(t, got, "&lt;script&gt;")
	assert.Contains(t, got, "<strong>bold</strong>")
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		route, slug string
		want        string
		wantErr     bool
	}{
		{route: "/", slug: "_index", want: "out/_index.html"},
		{route: "/blog", slug: "_index", want: "out/blog/_index.html"},
		{route: "/blog/test-hello", slug: "test-hello", want: "out/blog/test-hello/test-hello.html"},
		{route: "/", slug: "../escape", wantErr: true},
		{route: "/", slug: "..", wantErr: true},
		{route: "/../../etc", slug: "passwd", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.route+"|"+tt.slug, func(t *testing.T) {
			node := &site.PageNode{Route: tt.route, Content: unit(t, tt.slug, "t", "")}
			got, err := OutputPath("out", node)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsafePath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestWriteAtomic_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b.html")
	require.NoError(t, writeAtomic(path, []byte("one")))
	require.NoError(t, writeAtomic(path, []byte("two")))
	assert.Equal(t, "two", readFile(t, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}
