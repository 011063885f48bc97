package content

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
)

func writeFile(t *testing.T, root, rel, body string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

func slugsOf(t *testing.T, root string, paths []string) []string {
	t.Helper()
	var out []string
	for _, p := range paths {
		s, err := SlugFor(root, p, ".mdx")
		if err != nil {
			t.Fatalf("SlugFor(%s): %v", p, err)
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func TestWalk_FindsDocumentsAtAnyDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "top.mdx", "x")
	writeFile(t, root, "2024/a.mdx", "x")
	writeFile(t, root, "2025/deep/nested/b.mdx", "x")
	writeFile(t, root, "2025/notes.md", "x")
	writeFile(t, root, "2025/image.png", "x")
	writeFile(t, root, "2025/UPPER.MDX", "x")

	files, err := Walk(root, ".mdx", nil)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	got := slugsOf(t, root, files)
	want := []string{"2024/a", "2025/deep/nested/b", "top"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("slugs = %v, want %v", got, want)
	}
}

func TestWalk_SkipsConfiguredAndHiddenDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep/a.mdx", "x")
	writeFile(t, root, "node_modules/pkg/readme.mdx", "x")
	writeFile(t, root, ".git/x.mdx", "x")
	writeFile(t, root, ".drafts/y.mdx", "x")
	writeFile(t, root, "keep/.hidden.mdx", "x")

	files, err := Walk(root, ".mdx", DefaultSkipDirs)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	got := slugsOf(t, root, files)
	if len(got) != 1 || got[0] != "keep/a" {
		t.Errorf("slugs = %v, want [keep/a]", got)
	}
}

func TestWalk_SkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := writeFile(t, outside, "secret.mdx", "x")
	writeFile(t, root, "real.mdx", "x")

	if err := os.Symlink(target, filepath.Join(root, "link.mdx")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "linkdir")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	files, err := Walk(root, ".mdx", nil)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	got := slugsOf(t, root, files)
	if len(got) != 1 || got[0] != "real" {
		t.Errorf("slugs = %v, want [real]", got)
	}
}

func TestWalk_MissingRootIsFatal(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "nope"), ".mdx", nil)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist in chain, got %v", err)
	}
}

func TestWalk_RootIsFile(t *testing.T) {
	root := t.TempDir()
	file := writeFile(t, root, "a.mdx", "x")
	if _, err := Walk(file, ".mdx", nil); err == nil {
		t.Fatal("expected error when root is a file")
	}
}

func TestWalk_UnreadableDirIsFatal(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	writeFile(t, root, "ok/a.mdx", "x")
	locked := filepath.Join(root, "locked")
	writeFile(t, root, "locked/b.mdx", "x")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	files, err := Walk(root, ".mdx", nil)
	if err == nil {
		t.Fatalf("expected error, got files %v", files)
	}
	if files != nil {
		t.Errorf("expected no partial result, got %v", files)
	}
}

func TestWalk_EmptyRoot(t *testing.T) {
	files, err := Walk(t.TempDir(), ".mdx", nil)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
}

func TestSlugFor(t *testing.T) {
	root := filepath.Join("srv", "posts")
	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(root, "a.mdx"), "a"},
		{filepath.Join(root, "2024", "hello-world.mdx"), "2024/hello-world"},
		{filepath.Join(root, "x", "y", "z.mdx"), "x/y/z"},
	}
	for _, tt := range tests {
		got, err := SlugFor(root, tt.path, ".mdx")
		if err != nil {
			t.Fatalf("SlugFor(%s): %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("SlugFor(%s) = %q, want %q", tt.path, got, tt.want)
		}
	}

	if _, err := SlugFor(root, filepath.Join("srv", "other.mdx"), ".mdx"); !errors.Is(err, ErrUnsafePath) {
		t.Errorf("expected ErrUnsafePath for path outside root, got %v", err)
	}
}

func TestParse_YAMLCapitalisedKeys(t *testing.T) {
	raw := `---
title: Hello World
date: 2024-01-05
Tags:
  - go
  - web
Category: Dev Notes
Published: true
cover: hero.png
---
# Heading

Body text.
`
	fm, body, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fm.Title != "Hello World" {
		t.Errorf("Title = %q", fm.Title)
	}
	if fm.Date != "2024-01-05" && fm.DateTime.IsZero() {
		t.Errorf("Date not captured: %q", fm.Date)
	}
	if len(fm.Tags) != 2 || fm.Tags[0] != "go" || fm.Tags[1] != "web" {
		t.Errorf("Tags = %v", fm.Tags)
	}
	if fm.Category != "Dev Notes" {
		t.Errorf("Category = %q", fm.Category)
	}
	if !fm.Published {
		t.Error("expected Published")
	}
	if fm.Extra["cover"] != "hero.png" {
		t.Errorf("Extra = %v", fm.Extra)
	}
	if keys := fm.ExtraKeys(); len(keys) != 1 || keys[0] != "cover" {
		t.Errorf("ExtraKeys = %v", keys)
	}
	if !strings.Contains(string(body), "Body text.") || strings.Contains(string(body), "Published") {
		t.Errorf("body = %q", body)
	}
}

func TestParse_YAMLLowercaseKeys(t *testing.T) {
	raw := "---\ntitle: t\ndate: \"2025-06-01\"\ntags: [a]\ncategory: misc\npublished: false\n---\nbody\n"
	fm, _, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fm.Date != "2025-06-01" {
		t.Errorf("Date = %q", fm.Date)
	}
	if fm.Category != "misc" || len(fm.Tags) != 1 || fm.Published {
		t.Errorf("unexpected frontmatter %+v", fm)
	}
	if len(fm.Extra) != 0 {
		t.Errorf("expected no extra keys, got %v", fm.Extra)
	}
}

func TestParse_CapitalisedKeyWins(t *testing.T) {
	raw := "---\nCategory: Primary\ncategory: secondary\n---\n"
	fm, _, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fm.Category != "Primary" {
		t.Errorf("Category = %q, want Primary", fm.Category)
	}
}

func TestParse_TOMLHeader(t *testing.T) {
	raw := "+++\ntitle = \"From TOML\"\ndate = 2024-03-07\nTags = [\"x\"]\nPublished = true\n+++\nbody\n"
	fm, body, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fm.Title != "From TOML" || !fm.Published {
		t.Errorf("unexpected frontmatter %+v", fm)
	}
	if fm.DateTime.IsZero() {
		t.Fatal("expected native TOML date")
	}
	if fm.DateTime.Year() != 2024 || fm.DateTime.Month() != 3 || fm.DateTime.Day() != 7 {
		t.Errorf("DateTime = %v", fm.DateTime)
	}
	if strings.TrimSpace(string(body)) != "body" {
		t.Errorf("body = %q", body)
	}
}

func TestParse_JSONHeader(t *testing.T) {
	raw := "{\n\"title\": \"From JSON\", \"Published\": true, \"Tags\": [\"a\", \"b\"]\n}\nbody\n"
	fm, _, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fm.Title != "From JSON" || !fm.Published || len(fm.Tags) != 2 {
		t.Errorf("unexpected frontmatter %+v", fm)
	}
}

func TestParse_NoHeader(t *testing.T) {
	raw := "just a body\n"
	fm, body, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fm.Title != "" || fm.Published || fm.Tags != nil || fm.Date != "" {
		t.Errorf("expected zero frontmatter, got %+v", fm)
	}
	if !strings.Contains(string(body), "just a body") {
		t.Errorf("body = %q, want the full input", body)
	}
}

func TestParse_ScalarValuesKeepWrittenText(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantTitle    string
		wantCategory string
		wantTags     []string
	}{
		{"numeric tag", "---\ntitle: AWS\nTags: [aws, 2025]\n---\n", "AWS", "", []string{"aws", "2025"}},
		{"numeric title", "---\ntitle: 1984\n---\n", "1984", "", nil},
		{"yes title", "---\ntitle: Yes\n---\n", "Yes", "", nil},
		{"no title", "---\nTitle: No\n---\n", "No", "", nil},
		{"float title", "---\ntitle: 1.50\n---\n", "1.50", "", nil},
		{"numeric category", "---\nCategory: 2025\n---\n", "", "2025", nil},
		{"toml number", "+++\ntitle = 1984\n+++\n", "1984", "", nil},
		{"json number", "{\n\"title\": 42, \"Category\": true\n}\nbody\n", "42", "true", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, _, err := Parse([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if fm.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", fm.Title, tt.wantTitle)
			}
			if fm.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", fm.Category, tt.wantCategory)
			}
			if !reflect.DeepEqual(fm.Tags, tt.wantTags) {
				t.Errorf("Tags = %#v, want %#v", fm.Tags, tt.wantTags)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"broken yaml", "---\ntitle: [unclosed\n---\nbody"},
		{"published not bool", "---\nPublished: [1, 2]\n---\n"},
		{"tags scalar", "---\nTags: go\n---\n"},
		{"tags with map item", "---\nTags:\n  - a: b\n---\n"},
		{"title list", "---\ntitle: [a, b]\n---\n"},
		{"date list", "---\ndate: [2024]\n---\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.raw))
			if !errors.Is(err, ErrMalformedFrontmatter) {
				t.Errorf("expected ErrMalformedFrontmatter, got %v", err)
			}
		})
	}
}

func TestStoreRead(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "2024/a.mdx", "---\ntitle: A\nPublished: true\n---\nhello\n")
	writeFile(t, root, "node_modules/b.mdx", "---\ntitle: B\n---\n")
	writeFile(t, root, "bad.mdx", "---\ntitle: [oops\n---\n")
	s := NewStore(root, "", nil)

	doc, err := s.Read("2024/a")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Meta.Title != "A" || strings.TrimSpace(string(doc.Body)) != "hello" {
		t.Errorf("unexpected document %+v", doc)
	}

	if _, err := s.Read("/2024/a/"); err != nil {
		t.Errorf("expected slashes to be trimmed, got %v", err)
	}

	if _, err := s.Read("2024/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Read("2024"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for directory slug, got %v", err)
	}
	if _, err := s.Read("node_modules/b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for skipped dir, got %v", err)
	}

	var docErr *DocumentError
	_, err = s.Read("bad")
	if !errors.As(err, &docErr) || !errors.Is(err, ErrMalformedFrontmatter) {
		t.Errorf("expected DocumentError wrapping ErrMalformedFrontmatter, got %v", err)
	}
}

func TestCleanSlug(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024/a", "2024/a", false},
		{"/2024/a/", "2024/a", false},
		{"a//b", "a/b", false},
		{"a/./b", "a/b", false},
		{"", "", true},
		{"/", "", true},
		{"../etc/passwd", "", true},
		{"a/../../b", "", true},
		{".env", "", true},
		{"a/.hidden", "", true},
		{"a\\..\\b", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanSlug(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsafePath) {
					t.Errorf("CleanSlug(%q) err = %v, want ErrUnsafePath", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CleanSlug(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("CleanSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
