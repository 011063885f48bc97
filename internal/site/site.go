// Package site writes the whole blog to disk as static HTML.
package site

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sgx-labs/folio/internal/blog"
	"github.com/sgx-labs/folio/internal/theme"
)

// ErrUnsafeOutput is returned when the output directory would wipe something
// it must not.
var ErrUnsafeOutput = errors.New("unsafe output directory")

// Options configures a build.
type Options struct {
	Service   *blog.Service
	Site      theme.Site
	Prefix    string
	OutputDir string
	StaticDir string
	Logger    *zap.Logger
}

// Stats reports what a build wrote.
type Stats struct {
	Posts       int
	Years       int
	Categories  int
	StaticFiles int
	Problems    int
	Duration    time.Duration
}

// Build indexes the store once and writes every page under
// OutputDir/<prefix>. The output directory is emptied first.
func Build(opts Options) (*Stats, error) {
	start := time.Now()
	if opts.Service == nil {
		return nil, errors.New("site: blog service is required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	out, err := checkOutput(opts.OutputDir, opts.Service.Root(), opts.StaticDir)
	if err != nil {
		return nil, err
	}
	th, err := theme.New(opts.Prefix)
	if err != nil {
		return nil, err
	}

	idx, err := opts.Service.Index()
	if err != nil {
		return nil, err
	}

	if err := os.RemoveAll(out); err != nil {
		return nil, fmt.Errorf("clean output: %w", err)
	}
	base := filepath.Join(out, filepath.FromSlash(strings.TrimPrefix(opts.Prefix, "/")))

	b := &builder{theme: th, site: opts.Site, base: base}
	stats := &Stats{Problems: len(idx.Problems)}

	ov := blog.OverviewOf(idx, opts.Service.RecentLimit())
	if err := b.write("", theme.Index, theme.Page{
		Site:        opts.Site,
		Description: opts.Site.Description,
		Path:        th.HomeURL(),
		Data:        ov,
	}); err != nil {
		return nil, err
	}

	for _, yc := range ov.Years {
		l := blog.YearOf(idx, yc.Year)
		if err := b.write("archive/"+yc.Year, theme.Listing, theme.Page{
			Site:        opts.Site,
			Title:       l.Label,
			Description: l.Description,
			Path:        th.YearURL(yc.Year),
			Data:        l,
		}); err != nil {
			return nil, err
		}
		stats.Years++
	}

	written := make(map[string]bool, len(ov.Categories))
	for _, cc := range ov.Categories {
		if written[cc.Slug] {
			continue
		}
		written[cc.Slug] = true
		l := blog.CategoryOf(idx, cc.Slug)
		if err := b.write("category/"+cc.Slug, theme.Listing, theme.Page{
			Site:        opts.Site,
			Title:       l.Label,
			Description: l.Description,
			Path:        th.CategoryURL(cc.Slug),
			Data:        l,
		}); err != nil {
			return nil, err
		}
		stats.Categories++
	}

	for _, rec := range idx.Published() {
		post, err := opts.Service.RenderRecord(rec)
		if err != nil {
			log.Warn("skipping post", zap.String("slug", rec.Slug), zap.Error(err))
			stats.Problems++
			continue
		}
		if err := b.write(rec.Slug, theme.Post, theme.Page{
			Site:  opts.Site,
			Title: post.Title,
			Path:  th.PostURL(rec.Slug),
			Data:  post,
		}); err != nil {
			return nil, err
		}
		stats.Posts++
	}

	if err := b.writeFile(filepath.Join(out, "404.html"), theme.NotFound, theme.Page{
		Site:  opts.Site,
		Title: "Not found",
		Data:  struct{ Path string }{Path: "this address"},
	}); err != nil {
		return nil, err
	}

	if opts.StaticDir != "" {
		n, err := copyStatic(opts.StaticDir, out)
		if err != nil {
			return nil, err
		}
		stats.StaticFiles = n
	}

	stats.Duration = time.Since(start)
	log.Info("site built",
		zap.String("output", out),
		zap.Int("posts", stats.Posts),
		zap.Int("years", stats.Years),
		zap.Int("categories", stats.Categories),
		zap.Int("static", stats.StaticFiles),
		zap.Int("problems", stats.Problems),
		zap.Duration("took", stats.Duration))
	return stats, nil
}

type builder struct {
	theme *theme.Theme
	site  theme.Site
	base  string
}

// write renders page to <base>/<rel>/index.html.
func (b *builder) write(rel, page string, data theme.Page) error {
	return b.writeFile(filepath.Join(b.base, filepath.FromSlash(rel), "index.html"), page, data)
}

func (b *builder) writeFile(path, page string, data theme.Page) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := b.theme.Render(f, page, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// checkOutput resolves dir and refuses to clean a directory that is, or
// contains, the content root or the static dir.
func checkOutput(dir, contentRoot, staticDir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("%w: output directory is empty", ErrUnsafeOutput)
	}
	out, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output: %w", err)
	}
	if out == filepath.Dir(out) {
		return "", fmt.Errorf("%w: %s is a filesystem root", ErrUnsafeOutput, out)
	}
	if home, err := os.UserHomeDir(); err == nil && out == filepath.Clean(home) {
		return "", fmt.Errorf("%w: %s is the home directory", ErrUnsafeOutput, out)
	}
	for _, p := range []string{contentRoot, staticDir} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if within(abs, out) {
			return "", fmt.Errorf("%w: %s contains %s", ErrUnsafeOutput, out, abs)
		}
	}
	return out, nil
}

// within reports whether path is dir or below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// copyStatic mirrors the regular, non-hidden files of src into dst.
func copyStatic(src, dst string) (int, error) {
	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stat static dir: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("static dir %s is not a directory", src)
	}

	count := 0
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != src && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if err := copyFile(path, filepath.Join(dst, rel)); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("copy static: %w", err)
	}
	return count, nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
