package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sgx-labs/folio/internal/blog"
	"github.com/sgx-labs/folio/internal/config"
	"github.com/sgx-labs/folio/internal/content"
	"github.com/sgx-labs/folio/internal/store"
)

func writeDoc(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// setupSite creates a working directory with a posts/ tree and switches to it.
func setupSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("FOLIO_LOG_LEVEL", "error")
	t.Setenv("FOLIO_CONTENT_ROOT", "")
	t.Cleanup(func() {
		config.FileOverride = ""
		config.RootOverride = ""
		logLevelOverride = ""
	})

	root := filepath.Join(dir, "posts")
	writeDoc(t, root, "2024/a.mdx", "---\ntitle: A\ndate: 2024-01-05\nCategory: Dev Notes\nPublished: true\nTags: [go]\n---\nBody of A.\n")
	writeDoc(t, root, "2025/b.mdx", "---\ntitle: B\ndate: 2025-06-01\nCategory: dev-notes\nPublished: true\nTags: [go, web]\n---\n## Part\n\nBody of B.\n")
	writeDoc(t, root, "2025/c.mdx", "---\ntitle: C\ndate: 2025-07-01\nPublished: false\n---\nDraft.\n")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "folio "+Version) {
		t.Errorf("output = %q", out)
	}
}

func TestList_Text(t *testing.T) {
	setupSite(t)
	out, err := execute(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	bIdx, aIdx := strings.Index(out, "2025/b"), strings.Index(out, "2024/a")
	if bIdx < 0 || aIdx < 0 || bIdx > aIdx {
		t.Errorf("expected 2025/b before 2024/a:\n%s", out)
	}
	if strings.Contains(out, "2025/c") {
		t.Errorf("unpublished post listed:\n%s", out)
	}
}

func TestList_JSON(t *testing.T) {
	setupSite(t)
	out, err := execute(t, "list", "--format", "json", "--category", "dev notes", "--limit", "1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []blog.Summary
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if len(got) != 1 || got[0].Slug != "2025/b" || got[0].Date != "2025/06/01" {
		t.Errorf("got %+v", got)
	}
}

func TestList_RootFlag(t *testing.T) {
	dir := setupSite(t)
	other := filepath.Join(dir, "other")
	writeDoc(t, other, "x.mdx", "---\ntitle: X\ndate: 2020-02-02\nPublished: true\n---\nx\n")

	out, err := execute(t, "--root", other, "list", "--format", "json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, `"x"`) || strings.Contains(out, "2025/b") {
		t.Errorf("--root not honoured:\n%s", out)
	}
}

func TestList_BadFlags(t *testing.T) {
	setupSite(t)
	if _, err := execute(t, "list", "--format", "yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := execute(t, "list", "--limit", "-1"); err == nil {
		t.Error("expected error for negative limit")
	}
}

func TestCategoriesAndYears(t *testing.T) {
	setupSite(t)
	out, err := execute(t, "categories")
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if !strings.Contains(out, "Dev Notes (dev-notes)") || !strings.Contains(out, "dev-notes (dev-notes)") {
		t.Errorf("categories output:\n%s", out)
	}

	out, err = execute(t, "years", "--format", "json")
	if err != nil {
		t.Fatalf("years: %v", err)
	}
	var years []map[string]any
	if err := json.Unmarshal([]byte(out), &years); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(years) != 2 || years[0]["year"] != "2025" {
		t.Errorf("years = %v", years)
	}
}

func TestShow(t *testing.T) {
	setupSite(t)
	out, err := execute(t, "show", "2025/b")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"B", "June 1, 2025", "#go #web", "Body of B."} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "show", "2025/b", "--html")
	if err != nil {
		t.Fatalf("show --html: %v", err)
	}
	if !strings.Contains(out, `<h2 id="part">Part</h2>`) {
		t.Errorf("expected rendered html:\n%s", out)
	}
}

func TestShow_NotFound(t *testing.T) {
	setupSite(t)
	_, err := execute(t, "show", "2025/c")
	if !errors.Is(err, content.ErrNotFound) {
		t.Errorf("show unpublished: %v", err)
	}
	_, err = execute(t, "show", "../secret")
	if !errors.Is(err, content.ErrUnsafePath) {
		t.Errorf("show traversal: %v", err)
	}
}

func TestBuild(t *testing.T) {
	dir := setupSite(t)
	out, err := execute(t, "build", "--out", "site")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(out, "Built 2 posts") {
		t.Errorf("output = %q", out)
	}
	for _, rel := range []string{"blog/index.html", "blog/2025/b/index.html", "blog/archive/2024/index.html", "blog/category/dev-notes/index.html"} {
		if _, err := os.Stat(filepath.Join(dir, "site", filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
}

func TestCheck(t *testing.T) {
	dir := setupSite(t)
	out, err := execute(t, "check")
	if err != nil {
		t.Fatalf("check on clean tree: %v\n%s", err, out)
	}
	if !strings.Contains(out, "No problems found.") {
		t.Errorf("output:\n%s", out)
	}

	writeDoc(t, filepath.Join(dir, "posts"), "broken.mdx", "---\ntitle: [nope\n---\n")
	out, err = execute(t, "check")
	if err == nil {
		t.Fatal("expected error when a document is broken")
	}
	if !strings.Contains(out, "broken.mdx") {
		t.Errorf("problem not reported:\n%s", out)
	}
}

func TestCheckSlugs(t *testing.T) {
	setupSite(t)
	out, err := execute(t, "check", "2025/b", "2025/c")
	if err != nil {
		t.Fatalf("check slugs: %v\n%s", err, out)
	}
	for _, want := range []string{"2025/b: published 2025/06/01", "2025/c: unpublished"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "check", "2025/nope")
	if err == nil {
		t.Fatal("expected error for a slug that is not indexed")
	}
	if !strings.Contains(out, "2025/nope: not indexed") {
		t.Errorf("output:\n%s", out)
	}
}

func TestExport(t *testing.T) {
	dir := setupSite(t)
	dbPath := filepath.Join(dir, "out", "folio.db")
	out, err := execute(t, "export", "--db", dbPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "Exported 3 posts") || !strings.Contains(out, "Snapshot built at ") {
		t.Errorf("output = %q", out)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer db.Close()
	rows, err := db.PublishedPosts()
	if err != nil {
		t.Fatalf("PublishedPosts: %v", err)
	}
	if len(rows) != 2 || rows[0].Slug != "2025/b" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestConfigInitAndPath(t *testing.T) {
	dir := setupSite(t)

	if _, err := execute(t, "config", "path"); err == nil {
		t.Error("expected error before a config file exists")
	}

	out, err := execute(t, "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, config.ConfigFileName) {
		t.Errorf("init output = %q", out)
	}
	if _, err := execute(t, "config", "init"); err == nil {
		t.Error("second init should refuse to overwrite")
	}

	out, err = execute(t, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if strings.TrimSpace(out) != filepath.Join(dir, config.ConfigFileName) {
		t.Errorf("path = %q", out)
	}

	out, err = execute(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "[content]") {
		t.Errorf("show output:\n%s", out)
	}
}

func TestServe_MissingRoot(t *testing.T) {
	dir := setupSite(t)
	_, err := execute(t, "--root", filepath.Join(dir, "gone"), "serve", "--addr", "127.0.0.1:0")
	if err == nil {
		t.Fatal("expected error for missing content root")
	}
}

func TestBrowserHost(t *testing.T) {
	if got := browserHost(":4040"); got != "localhost:4040" {
		t.Errorf("browserHost(:4040) = %q", got)
	}
	if got := browserHost("127.0.0.1:4040"); got != "127.0.0.1:4040" {
		t.Errorf("browserHost = %q", got)
	}
}

func TestMCPInstall(t *testing.T) {
	dir := setupSite(t)
	if _, err := execute(t, "mcp", "install"); err != nil {
		t.Fatalf("mcp install: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, ".mcp.json"))
	if err != nil {
		t.Fatalf("read .mcp.json: %v", err)
	}
	if !strings.Contains(string(data), filepath.Join(dir, "posts")) {
		t.Errorf("content root not pinned:\n%s", data)
	}
	if _, err := execute(t, "mcp", "install", "--remove"); err != nil {
		t.Fatalf("mcp install --remove: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(dir, ".mcp.json"))
	if strings.Contains(string(data), `"folio"`) {
		t.Errorf("entry not removed:\n%s", data)
	}
}
