package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/simplistis/internal/site"
)

// ErrUnsafePath is returned when a node would be written outside the
// output directory.
var ErrUnsafePath = errors.New("output path escapes output directory")

// OutputPath is where node is written: {outputDir}/{route}/{slug}.html, with
// the root route contributing no directory.
func OutputPath(outputDir string, node *site.PageNode) (string, error) {
	if outputDir == "" {
		return "", errors.New("output directory is required")
	}
	slug := node.Slug()
	if slug == "" || slug == "." || slug == ".." || strings.ContainsAny(slug, `/\`) {
		return "", fmt.Errorf("%w: slug %q", ErrUnsafePath, slug)
	}

	rel := filepath.FromSlash(strings.TrimPrefix(node.Route, "/"))
	full := filepath.Join(outputDir, rel, slug+".html")

	r, err := filepath.Rel(outputDir, full)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, full)
	}
	return full, nil
}

// writeAtomic writes data to path through a temp file in the same
// directory, so readers never observe a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close output file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod output file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename output file: %w", err)
	}
	return nil
}
