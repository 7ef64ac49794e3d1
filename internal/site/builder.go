package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/simplistis/internal/content"
	serrors "git.home.luguber.info/inful/simplistis/internal/errors"
	"git.home.luguber.info/inful/simplistis/internal/logfields"
	"git.home.luguber.info/inful/simplistis/internal/metrics"
)

var (
	// ErrMissingIndex means a directory has no readable index content file.
	ErrMissingIndex = errors.New("section index file missing")
	// ErrMissingTemplate means a directory has no readable page template.
	ErrMissingTemplate = errors.New("section page template missing")
)

// Builder turns a directory layout into a PageTree.
type Builder struct {
	loader   *content.Loader
	layout   Layout
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewBuilder creates a builder. Nil logger and recorder fall back to
// slog.Default() and a no-op recorder.
func NewBuilder(loader *content.Loader, layout Layout, logger *slog.Logger, recorder metrics.Recorder) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Builder{loader: loader, layout: layout, logger: logger, recorder: recorder}
}

// FromRoot builds the tree rooted at rootPath. A root without an index file
// or page template is a fatal layout error; child directories that do not
// qualify as sections are logged and left out.
func (b *Builder) FromRoot(rootPath string) (*PageTree, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, serrors.Wrap(err, serrors.CategoryLayout, serrors.SeverityFatal, "site root not accessible").
			WithContext("path", rootPath)
	}
	if !info.IsDir() {
		return nil, serrors.New(serrors.CategoryLayout, serrors.SeverityFatal, "site root is not a directory").
			WithContext("path", rootPath)
	}

	root, err := b.ParseSection(rootPath, rootPath)
	switch {
	case errors.Is(err, ErrMissingIndex):
		return nil, serrors.MissingRootFile("index", filepath.Join(rootPath, b.layout.IndexFile), err)
	case errors.Is(err, ErrMissingTemplate):
		return nil, serrors.MissingRootFile("template", filepath.Join(rootPath, b.layout.PageTemplate+".*"), err)
	case err != nil:
		return nil, serrors.BuildFailed("layout", err)
	}
	b.recorder.IncSection(metrics.SectionIncluded)

	entries, err := os.ReadDir(rootPath)
	if err != nil {
		return nil, serrors.Wrap(err, serrors.CategoryFileSystem, serrors.SeverityFatal, "cannot list site root").
			WithContext("path", rootPath)
	}

	seen := make(map[string]struct{}, len(root.Children)+1)
	seen[root.Route] = struct{}{}
	for _, c := range root.Children {
		seen[c.Route] = struct{}{}
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(rootPath, entry.Name())
		section, err := b.ParseSection(rootPath, dir)
		if err != nil {
			b.skipSection(dir, err)
			continue
		}
		if _, dup := seen[section.Route]; dup {
			b.skipSection(dir, fmt.Errorf("route %s already taken by a root page", section.Route))
			continue
		}
		seen[section.Route] = struct{}{}
		root.Children = append(root.Children, section)
		b.recorder.IncSection(metrics.SectionIncluded)
	}

	tree := &PageTree{Root: root}
	b.logger.Info("Built page tree",
		logfields.Path(rootPath),
		slog.Int("sections", tree.Sections()),
		logfields.Count(len(tree.Nodes())))
	return tree, nil
}

func (b *Builder) skipSection(dir string, cause error) {
	b.recorder.IncSection(metrics.SectionSkipped)
	err := serrors.SectionSkipped(dir, cause)
	level := slog.LevelWarn
	if errors.Is(cause, ErrMissingIndex) {
		// Plain asset directories are expected to lack an index.
		level = slog.LevelInfo
	}
	b.logger.Log(context.Background(), level, "Section excluded", logfields.Section(filepath.Base(dir)), logfields.Error(err))
}

// ParseSection builds the section rooted at dirPath. Its route is dirPath
// relative to basePath. It returns ErrMissingIndex or ErrMissingTemplate
// when the directory is not a section.
func (b *Builder) ParseSection(basePath, dirPath string) (*PageNode, error) {
	route, err := sectionRoute(basePath, dirPath)
	if err != nil {
		return nil, err
	}

	indexPath := filepath.Join(dirPath, b.layout.IndexFile)
	if _, err := os.Stat(indexPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMissingIndex, indexPath, err)
	}

	tplPath, err := b.findTemplate(dirPath, b.layout.PageTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingTemplate, err)
	}
	tplBody, err := os.ReadFile(tplPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingTemplate, err)
	}

	index, err := b.loader.FromFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingIndex, err)
	}

	node := &PageNode{
		Route:         route,
		Content:       index,
		TemplateBody:  string(tplBody),
		TemplatePath:  tplPath,
		IsSectionRoot: true,
	}
	b.addLeaves(node, dirPath)
	return node, nil
}

func (b *Builder) addLeaves(node *PageNode, dirPath string) {
	leafTplPath, err := b.findTemplate(dirPath, b.layout.ContentTemplate)
	if err != nil {
		if n := b.countContentFiles(dirPath); n > 0 {
			b.logger.Info("No content template; content files ignored",
				logfields.Route(node.Route), logfields.Count(n))
		}
		return
	}
	leafTpl, err := os.ReadFile(leafTplPath)
	if err != nil {
		b.logger.Warn("Content template unreadable; content files ignored",
			logfields.Route(node.Route), logfields.Template(leafTplPath), logfields.Error(err))
		return
	}

	seen := map[string]struct{}{node.Route: {}}
	for _, unit := range b.loader.FromDirectory(dirPath) {
		slug := unit.Metadata().Slug
		if !safeSegment(slug) {
			b.logger.Warn("Skipping page with unusable slug",
				logfields.Path(unit.SourcePath()), logfields.Slug(slug))
			continue
		}
		route := joinRoute(node.Route, slug)
		if _, dup := seen[route]; dup {
			b.logger.Warn("Skipping page with duplicate route",
				logfields.Path(unit.SourcePath()), logfields.Route(route))
			continue
		}
		seen[route] = struct{}{}
		node.Children = append(node.Children, &PageNode{
			Route:        route,
			Content:      unit,
			TemplateBody: string(leafTpl),
			TemplatePath: leafTplPath,
		})
	}
}

// findTemplate returns the file in dir whose name without extension is stem.
// Several matches resolve to the lexicographically first.
func (b *Builder) findTemplate(dir, stem string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, e := range entries {
		if !content.RegularFile(dir, e) {
			continue
		}
		name := e.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == stem {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no %s.* in %s: %w", stem, dir, fs.ErrNotExist)
	}
	if len(matches) > 1 {
		b.logger.Warn("Several templates match; using the first",
			logfields.Path(dir), logfields.Template(matches[0]), slog.Any("candidates", matches))
	}
	return filepath.Join(dir, matches[0]), nil
}

func (b *Builder) countContentFiles(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	sel := b.layout.Selection()
	n := 0
	for _, e := range entries {
		if sel.Includes(e.Name()) && content.RegularFile(dir, e) {
			n++
		}
	}
	return n
}

func sectionRoute(basePath, dirPath string) (string, error) {
	rel, err := filepath.Rel(basePath, dirPath)
	if err != nil {
		return "", fmt.Errorf("section %s is not under %s: %w", dirPath, basePath, err)
	}
	if rel == "." {
		return "/", nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("section %s is not under %s", dirPath, basePath)
	}
	return "/" + filepath.ToSlash(rel), nil
}

func joinRoute(parent, slug string) string {
	if parent == "/" {
		return "/" + slug
	}
	return parent + "/" + slug
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
