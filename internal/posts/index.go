package posts

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/sgx-labs/folio/internal/content"
)

// Options configures a build.
type Options struct {
	// Extension defaults to content.DefaultExtension.
	Extension string
	// SkipDirs defaults to content.DefaultSkipDirs.
	SkipDirs map[string]bool
	Logger   *zap.Logger
}

// Problem is a document that was skipped or indexed with a defect.
type Problem struct {
	Path string
	Slug string
	Err  error
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %v", p.Path, p.Err)
}

// Index is the result of one build.
type Index struct {
	Root    string
	Records []Record
	// Problems lists documents excluded for malformed headers plus records
	// that were kept but flagged (bad dates, slug collisions).
	Problems []Problem
}

// Build walks root, parses every document and returns the resulting index.
// Walk failures are fatal and return no index. Per-document failures are
// logged, recorded in Problems and do not stop the build.
//
// Paths are processed in lexicographic order, so when two documents map to
// the same slug the later path wins.
func Build(root string, opts Options) (*Index, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	store := content.NewStore(root, opts.Extension, opts.SkipDirs)

	paths, err := store.Walk()
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	sort.Strings(paths)

	idx := &Index{Root: root, Records: make([]Record, 0, len(paths))}
	bySlug := make(map[string]int, len(paths))

	for _, path := range paths {
		slug, err := store.Slug(path)
		if err != nil {
			idx.flag(log, Problem{Path: path, Err: err}, "skipping document outside root")
			continue
		}
		doc, err := store.Load(path)
		if err != nil {
			idx.flag(log, Problem{Path: path, Slug: slug, Err: err}, "skipping malformed document")
			continue
		}

		rec, dateErr := NewRecord(slug, path, doc.Meta)
		if dateErr != nil {
			idx.flag(log, Problem{Path: path, Slug: slug, Err: dateErr}, "document has no usable date")
		}

		idx.insert(log, bySlug, rec)
	}

	log.Debug("index built",
		zap.String("root", root),
		zap.Int("documents", len(paths)),
		zap.Int("records", len(idx.Records)),
		zap.Int("problems", len(idx.Problems)),
	)
	return idx, nil
}

// insert appends rec, or replaces and flags an earlier record with the
// same slug.
func (idx *Index) insert(log *zap.Logger, bySlug map[string]int, rec Record) {
	if i, dup := bySlug[rec.Slug]; dup {
		prev := idx.Records[i].Path
		idx.flag(log, Problem{Path: rec.Path, Slug: rec.Slug, Err: fmt.Errorf("%w: replaces %s", ErrDuplicateSlug, prev)}, "slug collision")
		idx.Records[i] = rec
		return
	}
	bySlug[rec.Slug] = len(idx.Records)
	idx.Records = append(idx.Records, rec)
}

func (idx *Index) flag(log *zap.Logger, p Problem, msg string) {
	idx.Problems = append(idx.Problems, p)
	log.Warn(msg,
		zap.String("path", p.Path),
		zap.String("slug", p.Slug),
		zap.Error(p.Err),
	)
}

// Lookup returns the record for slug.
func (idx *Index) Lookup(slug string) (Record, bool) {
	for _, r := range idx.Records {
		if r.Slug == slug {
			return r, true
		}
	}
	return Record{}, false
}

// Published returns the published records newest first.
func (idx *Index) Published() []Record {
	return SortByDateDescending(FilterPublished(idx.Records))
}

// Query runs q against the index.
func (idx *Index) Query(q Query) []Record {
	return Select(idx.Records, q)
}
