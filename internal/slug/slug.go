// Package slug turns display strings such as category names into URL-safe identifiers.
package slug

import (
	"strings"
	"unicode"
)

// Normalize lowercases and trims text, turns whitespace runs into a single
// hyphen, drops everything outside [a-z0-9_-] and collapses repeated hyphens.
//
// The result is stable for a given input and Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))

	var b strings.Builder
	b.Grow(len(lower))
	last := rune(0)
	emit := func(r rune) {
		if r == '-' && last == '-' {
			return
		}
		b.WriteRune(r)
		last = r
	}

	for _, r := range lower {
		switch {
		case unicode.IsSpace(r):
			emit('-')
		case isWordChar(r), r == '-':
			emit(r)
		}
	}
	return b.String()
}

// isWordChar matches the ASCII word class [A-Za-z0-9_]. Input is already
// lowercased, but the upper range is kept so the helper stands on its own.
func isWordChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}
