// Package watcher monitors the content store for document changes and
// calls back once per burst of edits.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before onChange fires.
const DefaultDebounce = 500 * time.Millisecond

// Options configures Watch.
type Options struct {
	// Root is the content root. Only files ending in Extension count.
	Root      string
	Extension string
	SkipDirs  map[string]bool
	// StaticDir is optional. Any regular file change below it counts.
	StaticDir string
	Debounce  time.Duration
	Logger    *zap.Logger
}

// Watch blocks until ctx is done, calling onChange with the sorted set of
// changed paths after each debounced burst. Removals and renames count as
// changes.
func Watch(ctx context.Context, opts Options, onChange func(paths []string)) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	delay := opts.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	roots := []string{opts.Root}
	if opts.StaticDir != "" {
		if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
			roots = append(roots, opts.StaticDir)
		}
	}
	watched := 0
	for _, root := range roots {
		for _, d := range walkDirs(root, opts.SkipDirs) {
			if err := w.Add(d); err != nil {
				log.Warn("could not watch directory", zap.String("dir", d), zap.Error(err))
				continue
			}
			watched++
		}
	}
	if watched == 0 {
		return fmt.Errorf("nothing to watch under %s", opts.Root)
	}
	log.Info("watching for changes", zap.Int("dirs", watched), zap.String("root", opts.Root))

	var (
		mu      sync.Mutex
		pending = make(map[string]bool)
		timer   *time.Timer
	)

	flush := func() {
		mu.Lock()
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		pending = make(map[string]bool)
		mu.Unlock()

		if len(paths) == 0 || ctx.Err() != nil {
			return
		}
		sort.Strings(paths)
		onChange(paths)
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !skipped(filepath.Base(event.Name), opts.SkipDirs) {
						for _, d := range walkDirs(event.Name, opts.SkipDirs) {
							if err := w.Add(d); err != nil {
								log.Warn("could not watch directory", zap.String("dir", d), zap.Error(err))
							}
						}
					}
					continue
				}
			}

			if !relevant(event.Name, opts) {
				continue
			}
			if event.Op == fsnotify.Chmod {
				continue
			}

			log.Debug("change", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			mu.Lock()
			pending[event.Name] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(delay, flush)
			mu.Unlock()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}

// relevant reports whether a change to path should trigger a rebuild.
func relevant(path string, opts Options) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	if opts.StaticDir != "" && within(path, opts.StaticDir) {
		return true
	}
	return strings.HasSuffix(path, opts.Extension)
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func skipped(name string, skipDirs map[string]bool) bool {
	return skipDirs[name] || strings.HasPrefix(name, ".")
}

func walkDirs(root string, skipDirs map[string]bool) []string {
	var dirs []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && skipped(d.Name(), skipDirs) {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs
}
