// Package render converts post bodies from markdown to HTML.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	mdparser "github.com/gomarkdown/markdown/parser"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Engine names.
const (
	Goldmark   = "goldmark"
	Gomarkdown = "gomarkdown"
)

// Options tunes the HTML output. Raw HTML in documents is never passed through.
type Options struct {
	HardWraps         bool
	OpenLinksInNewTab bool
}

// Renderer turns a document body into trusted HTML.
type Renderer interface {
	Render(src []byte) (template.HTML, error)
	Name() string
}

// New returns the renderer for engine. An empty engine selects goldmark.
func New(engine string, opts Options) (Renderer, error) {
	switch engine {
	case "", Goldmark:
		return newGoldmark(opts), nil
	case Gomarkdown:
		return &gomarkdownRenderer{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown render engine %q", engine)
	}
}

type goldmarkRenderer struct {
	md goldmark.Markdown
}

func newGoldmark(opts Options) *goldmarkRenderer {
	parserOpts := []parser.Option{parser.WithAutoHeadingID()}
	if opts.OpenLinksInNewTab {
		parserOpts = append(parserOpts, parser.WithASTTransformers(
			util.Prioritized(targetBlank{}, 500),
		))
	}
	var rendererOpts []goldmark.Option
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(gmhtml.WithHardWraps()))
	}

	md := goldmark.New(append([]goldmark.Option{
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parserOpts...),
	}, rendererOpts...)...)
	return &goldmarkRenderer{md: md}
}

func (r *goldmarkRenderer) Name() string { return Goldmark }

func (r *goldmarkRenderer) Render(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("goldmark: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// targetBlank marks every link to open in a new tab.
type targetBlank struct{}

func (targetBlank) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Link, *ast.AutoLink:
			n.SetAttributeString("target", []byte("_blank"))
			n.SetAttributeString("rel", []byte("noopener noreferrer"))
		}
		return ast.WalkContinue, nil
	})
}

type gomarkdownRenderer struct {
	opts Options
}

func (r *gomarkdownRenderer) Name() string { return Gomarkdown }

// Render builds a fresh parser per call; gomarkdown parsers are single use.
func (r *gomarkdownRenderer) Render(src []byte) (template.HTML, error) {
	extensions := mdparser.CommonExtensions | mdparser.AutoHeadingIDs
	if r.opts.HardWraps {
		extensions |= mdparser.HardLineBreak
	}
	p := mdparser.NewWithExtensions(extensions)

	htmlFlags := mdhtml.CommonFlags | mdhtml.SkipHTML
	if r.opts.OpenLinksInNewTab {
		htmlFlags |= mdhtml.HrefTargetBlank | mdhtml.NoopenerLinks | mdhtml.NoreferrerLinks
	}
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: htmlFlags})
	return template.HTML(markdown.ToHTML(src, p, renderer)), nil
}
