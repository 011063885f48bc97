// Package content reads the document store: it walks the content tree,
// splits documents into frontmatter and body, and resolves slugs to files.
package content

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtension is the document suffix used when none is configured.
const DefaultExtension = ".mdx"

// DefaultSkipDirs lists directory names never descended into.
var DefaultSkipDirs = map[string]bool{
	".git":         true,
	".folio":       true,
	"node_modules": true,
}

// Walk returns every regular file under root whose name ends with ext, at any
// depth. Hidden entries and directories named in skipDirs are not visited.
// Symbolic links are skipped. The result order is unspecified.
//
// A missing root or any directory that cannot be read fails the whole walk.
func Walk(root, ext string, skipDirs map[string]bool) ([]string, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("content root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content root %s: not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			if path != root && (skipDirs[d.Name()] || isHidden(d.Name())) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || isHidden(d.Name()) {
			return nil
		}
		if strings.HasSuffix(d.Name(), ext) && len(d.Name()) > len(ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// SlugFor converts a document path under root into its slug: the relative
// path with ext removed and separators normalised to "/".
func SlugFor(root, path, ext string) (string, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("relative path for %s: %w", path, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s: %w", path, ErrUnsafePath)
	}
	return strings.TrimSuffix(rel, ext), nil
}
