// Package testutil holds fixtures and assertions shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// BlogSite is the reference layout: a root page and a blog section with one
// post titled "Hello World!".
func BlogSite() map[string]string {
	return map[string]string{
		"_index.md":          "---\ntitle = \"Home\"\n---\nWelcome",
		"template.x":         "<html>{{.content}}</html>",
		"blog/_index.md":     "---\ntitle = \"Blog\"\n---\nPosts",
		"blog/template.x":    "<section>{{range .children}}{{.title}}{{end}}</section>",
		"blog/content.x":     "<article>{{.title}}</article>",
		"blog/test-hello.md": "---\ntitle = \"Hello World!\"\nauthor = \"fauh45\"\ntags = [\"a\", \"b\", \"c\"]\n---\n# Hello",
	}
}

// WriteTree creates files (slash-separated relative path → contents) under
// root, creating directories as needed.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for rel, data := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("create %s: %v", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

// FileAssertions checks file system state below a base directory.
type FileAssertions struct {
	t       testing.TB
	baseDir string
}

// NewFileAssertions creates a file assertions helper rooted at baseDir.
func NewFileAssertions(t testing.TB, baseDir string) *FileAssertions {
	return &FileAssertions{t: t, baseDir: baseDir}
}

// AssertFileExists validates that a regular file exists.
func (fa *FileAssertions) AssertFileExists(relativePath string) *FileAssertions {
	fa.t.Helper()
	fullPath := filepath.Join(fa.baseDir, filepath.FromSlash(relativePath))
	info, err := os.Stat(fullPath)
	if err != nil {
		fa.t.Errorf("Expected file to exist: %s", fullPath)
	} else if info.IsDir() {
		fa.t.Errorf("Expected %s to be a file, but it's a directory", fullPath)
	}
	return fa
}

// AssertFileNotExists validates that nothing exists at relativePath.
func (fa *FileAssertions) AssertFileNotExists(relativePath string) *FileAssertions {
	fa.t.Helper()
	fullPath := filepath.Join(fa.baseDir, filepath.FromSlash(relativePath))
	if _, err := os.Stat(fullPath); err == nil {
		fa.t.Errorf("Expected file to not exist: %s", fullPath)
	}
	return fa
}

// AssertFileContains validates that a file contains expected content.
func (fa *FileAssertions) AssertFileContains(relativePath, expectedContent string) *FileAssertions {
	fa.t.Helper()
	fullPath := filepath.Join(fa.baseDir, filepath.FromSlash(relativePath))
	data, err := os.ReadFile(fullPath)
	if err != nil {
		fa.t.Errorf("Failed to read file %s: %v", fullPath, err)
		return fa
	}
	if !strings.Contains(string(data), expectedContent) {
		fa.t.Errorf("File %s does not contain expected content %q", fullPath, expectedContent)
	}
	return fa
}

// AssertNoTempFiles validates that no atomic-write leftovers (*.tmp) remain
// anywhere below the base directory.
func (fa *FileAssertions) AssertNoTempFiles() *FileAssertions {
	fa.t.Helper()
	_ = filepath.WalkDir(fa.baseDir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.HasSuffix(d.Name(), ".tmp") {
			fa.t.Errorf("Unexpected temp file: %s", path)
		}
		return nil
	})
	return fa
}
