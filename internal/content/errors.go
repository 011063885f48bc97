package content

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no document exists for a slug.
	ErrNotFound = errors.New("document not found")

	// ErrMalformedFrontmatter is returned when a header cannot be decoded
	// or a known key holds a value of the wrong type.
	ErrMalformedFrontmatter = errors.New("malformed frontmatter")

	// ErrUnsafePath is returned for slugs that would resolve outside the content root.
	ErrUnsafePath = errors.New("unsafe document path")
)

// DocumentError ties a per-document failure to the file that caused it.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// NotFoundError carries the slug that was requested.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document '%s' not found", e.Slug)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a NotFoundError for slug.
func NewNotFoundError(slug string) *NotFoundError {
	return &NotFoundError{Slug: slug}
}

// fieldError reports a known frontmatter key with an unexpected value type.
type fieldError struct {
	Key  string
	Want string
	Got  any
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("frontmatter key %q: want %s, got %T", e.Key, e.Want, e.Got)
}

func (e *fieldError) Is(target error) bool {
	return target == ErrMalformedFrontmatter
}
