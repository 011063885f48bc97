// Package blog is the single entry point every surface uses to read the
// content store: listing pages, the JSON API, the static builder, the MCP
// tools and the CLI all go through a Service.
//
// A Service holds no index. Every call walks and parses the store again, so
// concurrent callers never share mutable state and edits show up on the next
// request.
package blog

import (
	"errors"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"github.com/sgx-labs/folio/internal/content"
	"github.com/sgx-labs/folio/internal/posts"
	"github.com/sgx-labs/folio/internal/render"
)

// DefaultRecentLimit is the overview length when none is configured.
const DefaultRecentLimit = 10

// Options configures a Service.
type Options struct {
	Root        string
	Extension   string
	SkipDirs    map[string]bool
	RecentLimit int
	Renderer    render.Renderer
	Logger      *zap.Logger
}

// Service answers listing and single-post queries from the content store.
type Service struct {
	root        string
	store       content.Store
	recentLimit int
	renderer    render.Renderer
	log         *zap.Logger
}

// Overview is the all-posts page.
type Overview struct {
	Recent     []posts.Record
	Categories []posts.CategoryCount
	Years      []posts.YearCount
	Total      int
}

// Listing is a year or category page.
type Listing struct {
	Kind        string // "year" or "category"
	Key         string
	Label       string
	Description string
	Posts       []posts.Record
}

// CategoryRef names a post's category for display and linking.
type CategoryRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Summary is the wire form of a record in listings.
type Summary struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Date     string   `json:"date"`
	Year     string   `json:"year"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// Summarize converts records for JSON output, keeping their order.
func Summarize(records []posts.Record) []Summary {
	out := make([]Summary, 0, len(records))
	for _, r := range records {
		tags := r.Meta.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, Summary{
			Slug:     r.Slug,
			Title:    r.Title(),
			Date:     r.FormattedDate,
			Year:     r.Year(),
			Category: r.Category(),
			Tags:     tags,
		})
	}
	return out
}

// Post is a single rendered post.
type Post struct {
	Record   posts.Record  `json:"-"`
	Slug     string        `json:"slug"`
	Title    string        `json:"title"`
	Date     string        `json:"date,omitempty"`
	LongDate string        `json:"long_date,omitempty"`
	Tags     []string      `json:"tags"`
	Category *CategoryRef  `json:"category"`
	HTML     template.HTML `json:"html"`
	Body     string        `json:"-"`
}

// New returns a Service. A nil renderer falls back to goldmark defaults.
func New(opts Options) (*Service, error) {
	if opts.Root == "" {
		return nil, errors.New("blog: content root is required")
	}
	r := opts.Renderer
	if r == nil {
		var err error
		if r, err = render.New(render.Goldmark, render.Options{}); err != nil {
			return nil, err
		}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	limit := opts.RecentLimit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &Service{
		root:        opts.Root,
		store:       content.NewStore(opts.Root, opts.Extension, opts.SkipDirs),
		recentLimit: limit,
		renderer:    r,
		log:         log,
	}, nil
}

// Root returns the content root.
func (s *Service) Root() string { return s.root }

// RecentLimit is the overview length.
func (s *Service) RecentLimit() int { return s.recentLimit }

// Index performs a fresh build of the whole store.
func (s *Service) Index() (*posts.Index, error) {
	return posts.Build(s.root, posts.Options{
		Extension: s.store.Extension,
		SkipDirs:  s.store.SkipDirs,
		Logger:    s.log,
	})
}

// Overview returns the newest posts plus category and year counts.
func (s *Service) Overview() (*Overview, error) {
	idx, err := s.Index()
	if err != nil {
		return nil, err
	}
	return OverviewOf(idx, s.recentLimit), nil
}

// OverviewOf derives the overview from an existing index.
func OverviewOf(idx *posts.Index, recentLimit int) *Overview {
	published := idx.Published()
	recent := published
	if recentLimit > 0 && len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	return &Overview{
		Recent:     recent,
		Categories: posts.CategoryCounts(idx.Records),
		Years:      posts.YearCounts(idx.Records),
		Total:      len(published),
	}
}

// Year returns the published posts of one year.
func (s *Service) Year(year string) (*Listing, error) {
	idx, err := s.Index()
	if err != nil {
		return nil, err
	}
	return YearOf(idx, year), nil
}

// YearOf derives a year listing from an existing index.
func YearOf(idx *posts.Index, year string) *Listing {
	return &Listing{
		Kind:        "year",
		Key:         year,
		Label:       year,
		Description: "Blog posts for " + year,
		Posts:       posts.SortByDateDescending(posts.FilterByYear(idx.Records, year)),
	}
}

// Category returns the published posts whose category key matches the
// request's. An unknown category is an empty listing
// labelled with the request.
func (s *Service) Category(requested string) (*Listing, error) {
	idx, err := s.Index()
	if err != nil {
		return nil, err
	}
	return CategoryOf(idx, requested), nil
}

// CategoryOf derives a category listing from an existing index.
func CategoryOf(idx *posts.Index, requested string) *Listing {
	key := posts.CategoryKey(requested)
	matches := posts.SortByDateDescending(posts.FilterByCategory(idx.Records, key))
	label := posts.CategoryLabel(matches, requested)
	return &Listing{
		Kind:        "category",
		Key:         key,
		Label:       label,
		Description: "Blog posts under " + label,
		Posts:       matches,
	}
}

// List runs a query against a fresh build.
func (s *Service) List(q posts.Query) ([]posts.Record, error) {
	idx, err := s.Index()
	if err != nil {
		return nil, err
	}
	return idx.Query(q), nil
}

// Categories returns the category counts.
func (s *Service) Categories() ([]posts.CategoryCount, error) {
	idx, err := s.Index()
	if err != nil {
		return nil, err
	}
	return posts.CategoryCounts(idx.Records), nil
}

// Years returns the year counts, newest first.
func (s *Service) Years() ([]posts.YearCount, error) {
	idx, err := s.Index()
	if err != nil {
		return nil, err
	}
	return posts.YearCounts(idx.Records), nil
}

// Post reads and renders one published post. Unknown and unpublished slugs
// return an error matching content.ErrNotFound; traversal attempts match
// content.ErrUnsafePath.
func (s *Service) Post(requested string) (*Post, error) {
	clean, err := content.CleanSlug(requested)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.Read(clean)
	if errors.Is(err, content.ErrMalformedFrontmatter) {
		s.log.Warn("skipping malformed document", zap.String("slug", clean), zap.Error(err))
		return nil, content.NewNotFoundError(clean)
	}
	if err != nil {
		return nil, err
	}
	if !doc.Meta.Published {
		return nil, content.NewNotFoundError(clean)
	}

	rec, dateErr := posts.NewRecord(clean, s.store.Path(clean), doc.Meta)
	if dateErr != nil {
		s.log.Warn("document has no usable date", zap.String("slug", clean), zap.Error(dateErr))
	}
	return s.renderPost(rec, doc.Body)
}

// RenderRecord renders a record already found in an index.
func (s *Service) RenderRecord(rec posts.Record) (*Post, error) {
	doc, err := s.store.Load(rec.Path)
	if err != nil {
		return nil, err
	}
	return s.renderPost(rec, doc.Body)
}

func (s *Service) renderPost(rec posts.Record, body []byte) (*Post, error) {
	html, err := s.renderer.Render(body)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", rec.Slug, err)
	}
	tags := rec.Meta.Tags
	if tags == nil {
		tags = []string{}
	}
	return &Post{
		Record:   rec,
		Slug:     rec.Slug,
		Title:    rec.Title(),
		Date:     rec.FormattedDate,
		LongDate: rec.LongDate(),
		Tags:     tags,
		Category: &CategoryRef{Name: rec.Category(), Slug: rec.CategoryKey()},
		HTML:     html,
		Body:     string(body),
	}, nil
}
