package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store is a directory tree of documents, one file per post.
type Store struct {
	Root      string
	Extension string
	SkipDirs  map[string]bool
}

// NewStore returns a Store for root using the default extension and skip list
// when ext or skipDirs are empty.
func NewStore(root, ext string, skipDirs map[string]bool) Store {
	if ext == "" {
		ext = DefaultExtension
	}
	if skipDirs == nil {
		skipDirs = DefaultSkipDirs
	}
	return Store{Root: root, Extension: ext, SkipDirs: skipDirs}
}

// Walk lists every document path in the store.
func (s Store) Walk() ([]string, error) {
	return Walk(s.Root, s.Extension, s.SkipDirs)
}

// Slug returns the slug for a document path inside the store.
func (s Store) Slug(path string) (string, error) {
	return SlugFor(s.Root, path, s.Extension)
}

// Path returns the file that backs slug. The slug must already be clean.
func (s Store) Path(slug string) string {
	return filepath.Join(s.Root, filepath.FromSlash(slug)+s.Extension)
}

// Load reads and parses the document at path. Parse failures come back as a
// *DocumentError wrapping ErrMalformedFrontmatter.
func (s Store) Load(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, &DocumentError{Path: path, Err: err}
	}
	meta, body, err := Parse(raw)
	if err != nil {
		return Document{}, &DocumentError{Path: path, Err: err}
	}
	return Document{Meta: meta, Body: body}, nil
}

// Read resolves slug to its document. Slugs that escape the root, touch hidden
// or skipped directories, or name a symbolic link are rejected the same way
// the walker would never have listed them.
func (s Store) Read(slug string) (Document, error) {
	clean, err := CleanSlug(slug)
	if err != nil {
		return Document{}, err
	}
	for _, part := range strings.Split(clean, "/") {
		if s.SkipDirs[part] {
			return Document{}, NewNotFoundError(clean)
		}
	}

	path := s.Path(clean)
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, NewNotFoundError(clean)
		}
		return Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return Document{}, NewNotFoundError(clean)
	}
	return s.Load(path)
}

// CleanSlug normalises a requested slug and rejects traversal attempts.
// Leading and trailing slashes are trimmed so "/2024/a/" and "2024/a" match.
func CleanSlug(raw string) (string, error) {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "", fmt.Errorf("empty slug: %w", ErrUnsafePath)
	}
	if strings.ContainsRune(trimmed, 0) || strings.Contains(trimmed, "\\") {
		return "", fmt.Errorf("slug %q: %w", raw, ErrUnsafePath)
	}
	clean := filepath.ToSlash(filepath.Clean(trimmed))
	if strings.HasPrefix(clean, "..") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.Contains(clean, "/..") || strings.Contains(clean, "/.") {
		return "", fmt.Errorf("slug %q: %w", raw, ErrUnsafePath)
	}
	return clean, nil
}
