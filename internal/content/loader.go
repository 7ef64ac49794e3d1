package content

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	serrors "git.home.luguber.info/inful/simplistis/internal/errors"
	"git.home.luguber.info/inful/simplistis/internal/logfields"
	"git.home.luguber.info/inful/simplistis/internal/markdown"
	"git.home.luguber.info/inful/simplistis/internal/metadata"
)

var (
	// ErrNoName is returned for a file whose name has nothing before the
	// extension, so no fallback title or slug can be derived.
	ErrNoName = errors.New("content file name has no stem")
	// ErrNotUTF8 is returned for files that are not valid UTF-8 text.
	ErrNotUTF8 = errors.New("content file is not valid UTF-8")
	// ErrNotRegular is returned for pipes, sockets, devices and directories.
	ErrNotRegular = errors.New("content path is not a regular file")
)

// RegularFile reports whether entry, listed in dir, is a regular file or a
// symlink to one.
func RegularFile(dir string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}

// candidate reports whether entry may be a content file. Symlinks are kept
// so that FromFile can report the ones that do not resolve.
func candidate(entry fs.DirEntry) bool {
	return entry.Type().IsRegular() || entry.Type()&fs.ModeSymlink != 0
}

// Selection decides which directory entries are content files.
type Selection struct {
	// IndexFile is the section's own content file, never listed as a leaf.
	IndexFile string
	// ReservedStems are template names excluded regardless of extension.
	ReservedStems []string
	// Extensions are lowercase, dot-prefixed content extensions.
	Extensions []string
}

// Includes reports whether a file named name is a leaf content file.
func (s Selection) Includes(name string) bool {
	if name == s.IndexFile {
		return false
	}
	ext := filepath.Ext(name)
	if !slices.Contains(s.Extensions, strings.ToLower(ext)) {
		return false
	}
	return !slices.Contains(s.ReservedStems, strings.TrimSuffix(name, ext))
}

// Loader reads content files through a metadata extractor.
type Loader struct {
	extractor *metadata.Extractor
	converter *markdown.Converter
	selection Selection
	logger    *slog.Logger
}

// NewLoader creates a loader. A nil logger means slog.Default().
func NewLoader(extractor *metadata.Extractor, converter *markdown.Converter, sel Selection, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{extractor: extractor, converter: converter, selection: sel, logger: logger}
}

// FromFile loads a single content file. The fallback title and slug is the
// file name without its extension.
func (l *Loader) FromFile(path string) (*Unit, error) {
	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return nil, serrors.ContentUnreadable(path, ErrNoName)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, serrors.ContentUnreadable(path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, serrors.ContentUnreadable(path, ErrNotRegular)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.ContentUnreadable(path, err)
	}
	if !utf8.Valid(data) {
		return nil, serrors.ContentUnreadable(path, ErrNotUTF8)
	}

	x := l.extractor.ExtractSource(path, string(data), stem)
	return NewUnit(path, x.Metadata, x.Body, x.Block, l.converter), nil
}

// FromDirectory loads every content file directly inside dir, ordered by
// file name. Only regular files and symlinks are considered. Files that fail to load are logged and skipped; an unreadable
// directory yields no units.
func (l *Loader) FromDirectory(dir string) []*Unit {
	entries, err := os.ReadDir(dir)
	if err != nil {
		l.logger.Warn("Cannot list content directory", logfields.Path(dir), logfields.Error(err))
		return nil
	}

	units := make([]*Unit, 0, len(entries))
	for _, entry := range entries {
		if !candidate(entry) || !l.selection.Includes(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		unit, err := l.FromFile(path)
		if err != nil {
			l.logger.Warn("Skipping content file", logfields.Path(path), logfields.Error(err))
			continue
		}
		units = append(units, unit)
	}
	l.logger.Debug("Loaded content directory", logfields.Path(dir), logfields.Count(len(units)))
	return units
}
