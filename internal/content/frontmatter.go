package content

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/adrg/frontmatter"
)

// Frontmatter holds the header fields of a document.
type Frontmatter struct {
	Title string
	// Date is the raw date as written. Headers that carry a native date
	// (TOML datetimes) also set DateTime and render Date as RFC 3339.
	Date      string
	DateTime  time.Time
	Tags      []string
	Category  string
	Published bool
	// Extra keeps every key that is not interpreted above.
	Extra map[string]any
}

// Document is a parsed document: header plus unrendered body.
type Document struct {
	Meta Frontmatter
	Body []byte
}

// Accepted spellings per field. The first spelling listed wins when both
// are present.
var (
	titleKeys     = []string{"title", "Title"}
	dateKeys      = []string{"date", "Date"}
	tagsKeys      = []string{"Tags", "tags"}
	categoryKeys  = []string{"Category", "category"}
	publishedKeys = []string{"Published", "published"}
)

// headerText is the string view of the interpreted keys. YAML assigns the
// source text of any scalar to a string field, so "title: 1984" and
// "title: Yes" keep their spelling here even though the generic decode
// reads them as an int and a bool.
type headerText struct {
	TitleLower    string   `yaml:"title" toml:"title" json:"title"`
	TitleUpper    string   `yaml:"Title" toml:"Title" json:"Title"`
	CategoryLower string   `yaml:"category" toml:"category" json:"category"`
	CategoryUpper string   `yaml:"Category" toml:"Category" json:"Category"`
	TagsLower     []string `yaml:"tags" toml:"tags" json:"tags"`
	TagsUpper     []string `yaml:"Tags" toml:"Tags" json:"Tags"`
}

func (h *headerText) scalar(key string) string {
	switch key {
	case "title":
		return h.TitleLower
	case "Title":
		return h.TitleUpper
	case "category":
		return h.CategoryLower
	case "Category":
		return h.CategoryUpper
	}
	return ""
}

func (h *headerText) list(key string) []string {
	switch key {
	case "tags":
		return h.TagsLower
	case "Tags":
		return h.TagsUpper
	}
	return nil
}

// Parse splits raw into its frontmatter and body. YAML (---), TOML (+++) and
// JSON (;;; or a leading {) headers are accepted. A document without a header
// parses to a zero Frontmatter and the full text as body.
//
// Missing fields stay at their zero values; no defaults are filled in.
func Parse(raw []byte) (Frontmatter, []byte, error) {
	var fields map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fields)
	if err != nil {
		return Frontmatter{}, nil, fmt.Errorf("%w: %v", ErrMalformedFrontmatter, err)
	}

	// TOML and JSON refuse a number for a string field. The text view is
	// then left empty and scalars are formatted from their decoded value.
	var text headerText
	if _, err := frontmatter.Parse(bytes.NewReader(raw), &text); err != nil {
		text = headerText{}
	}

	fm, err := fromFields(fields, &text)
	if err != nil {
		return Frontmatter{}, nil, err
	}
	return fm, body, nil
}

func fromFields(fields map[string]any, text *headerText) (Frontmatter, error) {
	var fm Frontmatter
	if len(fields) == 0 {
		return fm, nil
	}

	var err error
	if fm.Title, err = stringField(fields, titleKeys, text); err != nil {
		return Frontmatter{}, err
	}
	if fm.Category, err = stringField(fields, categoryKeys, text); err != nil {
		return Frontmatter{}, err
	}
	if fm.Tags, err = tagsField(fields, text); err != nil {
		return Frontmatter{}, err
	}
	if fm.Published, err = boolField(fields, publishedKeys); err != nil {
		return Frontmatter{}, err
	}
	if err = dateField(fields, &fm); err != nil {
		return Frontmatter{}, err
	}

	known := make(map[string]bool)
	for _, keys := range [][]string{titleKeys, dateKeys, tagsKeys, categoryKeys, publishedKeys} {
		for _, k := range keys {
			known[k] = true
		}
	}
	for k, v := range fields {
		if known[k] {
			continue
		}
		if fm.Extra == nil {
			fm.Extra = make(map[string]any)
		}
		fm.Extra[k] = v
	}
	return fm, nil
}

// lookup returns the first present, non-nil value for keys.
func lookup(fields map[string]any, keys []string) (string, any, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			return k, v, true
		}
	}
	return "", nil, false
}

// stringField reads a scalar as text. Numbers, booleans and dates are
// accepted in their written form; lists and maps are malformed.
func stringField(fields map[string]any, keys []string, text *headerText) (string, error) {
	k, v, ok := lookup(fields, keys)
	if !ok {
		return "", nil
	}
	if s, isString := v.(string); isString {
		return s, nil
	}
	formatted, isScalar := scalarText(v)
	if !isScalar {
		return "", &fieldError{Key: k, Want: "string", Got: v}
	}
	if written := text.scalar(k); written != "" {
		return written, nil
	}
	return formatted, nil
}

func boolField(fields map[string]any, keys []string) (bool, error) {
	k, v, ok := lookup(fields, keys)
	if !ok {
		return false, nil
	}
	b, isBool := v.(bool)
	if !isBool {
		return false, &fieldError{Key: k, Want: "bool", Got: v}
	}
	return b, nil
}

func tagsField(fields map[string]any, text *headerText) ([]string, error) {
	k, v, ok := lookup(fields, tagsKeys)
	if !ok {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), nil
	case []any:
		written := text.list(k)
		if len(written) != len(list) {
			written = nil
		}
		tags := make([]string, 0, len(list))
		for i, item := range list {
			if s, isString := item.(string); isString {
				tags = append(tags, s)
				continue
			}
			formatted, isScalar := scalarText(item)
			if !isScalar {
				return nil, &fieldError{Key: k, Want: "list of strings", Got: item}
			}
			if written != nil && written[i] != "" {
				formatted = written[i]
			}
			tags = append(tags, formatted)
		}
		return tags, nil
	default:
		return nil, &fieldError{Key: k, Want: "list of strings", Got: v}
	}
}

// scalarText formats a non-string scalar. It reports false for lists,
// maps and anything else that is not a single value.
func scalarText(v any) (string, bool) {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case time.Time:
		return x.Format(time.RFC3339), true
	}
	return "", false
}

func dateField(fields map[string]any, fm *Frontmatter) error {
	k, v, ok := lookup(fields, dateKeys)
	if !ok {
		return nil
	}
	switch d := v.(type) {
	case string:
		fm.Date = d
	case time.Time:
		fm.DateTime = d
		fm.Date = d.Format(time.RFC3339)
	default:
		return &fieldError{Key: k, Want: "string or date", Got: v}
	}
	return nil
}

// ExtraKeys returns the uninterpreted header keys in sorted order.
func (fm Frontmatter) ExtraKeys() []string {
	keys := make([]string, 0, len(fm.Extra))
	for k := range fm.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
