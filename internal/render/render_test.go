package render

import (
	"strings"
	"testing"
)

const sample = "# Hello World\n\nSome *emphasis* and a [link](https://example.com).\nSecond line.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n<script>alert(1)</script>\n"

func TestNew_UnknownEngine(t *testing.T) {
	if _, err := New("pandoc", Options{}); err == nil {
		t.Fatal("expected error for unknown engine")
	}
}

func TestNew_DefaultIsGoldmark(t *testing.T) {
	r, err := New("", Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.Name() != Goldmark {
		t.Errorf("Name = %q, want goldmark", r.Name())
	}
}

func TestRenderers(t *testing.T) {
	for _, engine := range []string{Goldmark, Gomarkdown} {
		t.Run(engine, func(t *testing.T) {
			r, err := New(engine, Options{})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			out, err := r.Render([]byte(sample))
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			html := string(out)

			if !strings.Contains(html, `id="hello-world"`) {
				t.Errorf("expected auto heading id, got:\n%s", html)
			}
			if !strings.Contains(html, "<em>emphasis</em>") {
				t.Errorf("expected emphasis, got:\n%s", html)
			}
			if !strings.Contains(html, "<table>") {
				t.Errorf("expected table, got:\n%s", html)
			}
			if strings.Contains(html, "<script>") {
				t.Errorf("raw HTML should not pass through, got:\n%s", html)
			}
			if strings.Contains(html, `target="_blank"`) {
				t.Errorf("links should not open in new tab by default, got:\n%s", html)
			}
			if strings.Contains(html, "<br") {
				t.Errorf("soft breaks should not become <br> by default, got:\n%s", html)
			}
		})
	}
}

func TestRenderers_Options(t *testing.T) {
	opts := Options{HardWraps: true, OpenLinksInNewTab: true}
	for _, engine := range []string{Goldmark, Gomarkdown} {
		t.Run(engine, func(t *testing.T) {
			r, err := New(engine, opts)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			out, err := r.Render([]byte(sample))
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			html := string(out)
			if !strings.Contains(html, `target="_blank"`) {
				t.Errorf("expected target=_blank, got:\n%s", html)
			}
			if !strings.Contains(html, "<br") {
				t.Errorf("expected hard wrap, got:\n%s", html)
			}
		})
	}
}

func TestRender_Empty(t *testing.T) {
	for _, engine := range []string{Goldmark, Gomarkdown} {
		r, err := New(engine, Options{})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		out, err := r.Render(nil)
		if err != nil {
			t.Fatalf("%s: Render(nil): %v", engine, err)
		}
		if strings.TrimSpace(string(out)) != "" {
			t.Errorf("%s: expected empty output, got %q", engine, out)
		}
	}
}
