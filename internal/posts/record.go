// Package posts builds the post index: it turns the documents of a content
// store into records and derives the chronological, per-year and
// per-category views from them.
package posts

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/sgx-labs/folio/internal/content"
	"github.com/sgx-labs/folio/internal/slug"
)

// DateLayout is the short display form of a post date.
const DateLayout = "2006/01/02"

// LongDateLayout is the form used on a single post page.
const LongDateLayout = "January 2, 2006"

// UndatedKey is the year bucket for published records without a valid date.
const UndatedKey = "undated"

// UncategorizedName is the category bucket for records without a category.
const UncategorizedName = "Uncategorized"

var (
	// ErrInvalidDate flags a record whose date is missing or unparseable.
	ErrInvalidDate = errors.New("invalid or missing date")

	// ErrDuplicateSlug flags a document that replaced an earlier one with the same slug.
	ErrDuplicateSlug = errors.New("duplicate slug")
)

// Record is one indexed document. Records are built once per index build
// and never modified afterwards.
type Record struct {
	Slug string
	Path string
	// ParsedDate is zero and DateValid false when the date could not be read.
	ParsedDate    time.Time
	DateValid     bool
	FormattedDate string
	Meta          content.Frontmatter
}

// Published reports whether the record appears in listings.
func (r Record) Published() bool {
	return r.Meta.Published
}

// Title returns the frontmatter title, falling back to the slug.
func (r Record) Title() string {
	if strings.TrimSpace(r.Meta.Title) != "" {
		return r.Meta.Title
	}
	return r.Slug
}

// Year returns the four-digit year key, or UndatedKey.
func (r Record) Year() string {
	if !r.DateValid {
		return UndatedKey
	}
	return fmt.Sprintf("%04d", r.ParsedDate.Year())
}

// Category returns the raw category, or UncategorizedName when empty.
func (r Record) Category() string {
	if c := strings.TrimSpace(r.Meta.Category); c != "" {
		return r.Meta.Category
	}
	return UncategorizedName
}

// CategoryKey is the URL key of the record's category.
func (r Record) CategoryKey() string {
	return CategoryKey(r.Category())
}

// CategoryKey normalises a category name or request into its URL key. A
// name with no usable characters, such as "???", maps to the key of
// UncategorizedName so it still has a page to link to.
func CategoryKey(name string) string {
	if key := slug.Normalize(name); key != "" {
		return key
	}
	return slug.Normalize(UncategorizedName)
}

// LongDate formats the date for a single post page, or "" when invalid.
func (r Record) LongDate() string {
	if !r.DateValid {
		return ""
	}
	return r.ParsedDate.Format(LongDateLayout)
}

// FormatDate renders t as zero-padded YYYY/MM/DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate reads a frontmatter date. Native dates are used as is; strings
// go through dateparse so "2024-01-05", "2024/01/05" and "Jan 5, 2024" all
// resolve to the same day. Day and month orders that cannot be told apart,
// such as "03/07/2025", are rejected.
func ParseDate(meta content.Frontmatter) (time.Time, error) {
	if !meta.DateTime.IsZero() {
		return meta.DateTime, nil
	}
	raw := strings.TrimSpace(meta.Date)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}
	t, err := dateparse.ParseStrict(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, raw, err)
	}
	return t, nil
}

// NewRecord derives a record from a parsed document. A date problem is
// returned alongside the record rather than instead of it.
func NewRecord(slug, path string, meta content.Frontmatter) (Record, error) {
	rec := Record{Slug: slug, Path: path, Meta: meta}
	t, err := ParseDate(meta)
	if err != nil {
		return rec, err
	}
	rec.ParsedDate = t
	rec.DateValid = true
	rec.FormattedDate = FormatDate(t)
	return rec, nil
}
