package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sgx-labs/folio/internal/blog"
	"github.com/sgx-labs/folio/internal/posts"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShortenHome(t *testing.T) {
	t.Setenv("HOME", "/home/writer")
	if got := ShortenHome("/home/writer/blog/posts"); got != "~/blog/posts" {
		t.Errorf("ShortenHome = %q", got)
	}
	if got := ShortenHome("/home/writerx/posts"); got != "/home/writerx/posts" {
		t.Errorf("sibling dir should not shorten, got %q", got)
	}
}

func TestPostList(t *testing.T) {
	var b bytes.Buffer
	PostList(&b, []blog.Summary{
		{Slug: "2025/b", Title: "Bee", Date: "2025/06/01"},
		{Slug: "old", Title: "Old"},
	})
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), b.String())
	}
	for _, want := range []string{"2025/06/01", "Bee", "2025/b"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("line 0 missing %q: %q", want, lines[0])
		}
	}
	if !strings.Contains(lines[1], "undated") {
		t.Errorf("undated post should say so: %q", lines[1])
	}

	b.Reset()
	PostList(&b, nil)
	if !strings.Contains(b.String(), "No posts.") {
		t.Errorf("empty list = %q", b.String())
	}
}

func TestCounts(t *testing.T) {
	var b bytes.Buffer
	Counts(&b, CategoryRows([]posts.CategoryCount{{Name: "Dev Notes", Slug: "dev-notes", Count: 1200}}))
	Counts(&b, YearRows([]posts.YearCount{{Year: "2025", Count: 3}}))
	out := b.String()
	for _, want := range []string{"Dev Notes (dev-notes)", "1,200", "2025", "3"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestProblems(t *testing.T) {
	var b bytes.Buffer
	Problems(&b, []posts.Problem{{Path: "/c/bad.mdx", Slug: "bad", Err: errors.New("boom")}})
	if !strings.Contains(b.String(), "bad") || !strings.Contains(b.String(), "boom") {
		t.Errorf("problems = %q", b.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var b bytes.Buffer
	if err := WriteJSON(&b, []blog.Summary{{Slug: "a", Tags: []string{}}}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(b.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, b.String())
	}
	if got[0]["slug"] != "a" {
		t.Errorf("got %v", got)
	}
}

func TestValidFormat(t *testing.T) {
	if !ValidFormat("text") || !ValidFormat("json") || ValidFormat("yaml") {
		t.Error("ValidFormat mismatch")
	}
}
