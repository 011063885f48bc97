// Package theme renders the blog's HTML pages from embedded templates.
package theme

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	Index    = "index"
	Listing  = "listing"
	Post     = "post"
	NotFound = "notfound"
)

var pageNames = []string{Index, Listing, Post, NotFound}

// Site is shared by every page.
type Site struct {
	Title       string
	Description string
	BaseURL     string
}

// Page is the data passed to a template. Data holds the page-specific view.
type Page struct {
	Site        Site
	Title       string
	Description string
	// Path is the site-relative URL of the page, used for the canonical link.
	Path string
	Data any
}

// Canonical returns the absolute URL of the page when a base URL is set.
func (p Page) Canonical() string {
	if p.Site.BaseURL == "" || p.Path == "" {
		return ""
	}
	return strings.TrimRight(p.Site.BaseURL, "/") + p.Path
}

// Theme holds one parsed template set per page.
type Theme struct {
	prefix string
	pages  map[string]*template.Template
}

// New parses the embedded templates. prefix is the listing prefix ("/blog"
// or "" for the site root) that every generated link starts with.
func New(prefix string) (*Theme, error) {
	t := &Theme{prefix: prefix, pages: make(map[string]*template.Template, len(pageNames))}
	funcs := template.FuncMap{
		"homeURL":     t.HomeURL,
		"postURL":     t.PostURL,
		"categoryURL": t.CategoryURL,
		"yearURL":     t.YearURL,
	}
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		t.pages[name] = tmpl
	}
	return t, nil
}

// Render executes page into w. Output is buffered so a template error never
// leaves a half-written page behind.
func (t *Theme) Render(w io.Writer, page string, data Page) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// HomeURL is the overview page.
func (t *Theme) HomeURL() string {
	return t.prefix + "/"
}

// PostURL links a single post.
func (t *Theme) PostURL(slug string) string {
	return t.prefix + "/" + escapeSegments(slug) + "/"
}

// CategoryURL links a category page by its normalised slug.
func (t *Theme) CategoryURL(categorySlug string) string {
	return t.prefix + "/category/" + url.PathEscape(categorySlug) + "/"
}

// YearURL links a year archive page.
func (t *Theme) YearURL(year string) string {
	return t.prefix + "/archive/" + url.PathEscape(year) + "/"
}

func escapeSegments(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
