// Package mcp exposes the blog to MCP clients over stdio as read-only tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sgx-labs/folio/internal/blog"
	"github.com/sgx-labs/folio/internal/content"
	"github.com/sgx-labs/folio/internal/posts"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Server answers tool calls from a blog service.
type Server struct {
	svc     *blog.Service
	version string
	log     *zap.Logger
}

// New returns a Server. version is reported to clients.
func New(svc *blog.Service, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, version: version, log: log}
}

// Serve runs the MCP server on stdio until ctx is done or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "folio",
		Version: s.version,
	}, nil)

	s.registerTools(server)

	return server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools(server *mcp.Server) {
	// list_posts
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_posts",
		Description: "List published blog posts, newest first. Use this to find what has been written, optionally narrowed to a year or category.\n\nArgs:\n  year: Four-digit year, or 'undated'\n  category: Category name or slug (e.g. 'Dev Notes' or 'dev-notes')\n  limit: Number of posts (default 20, max 100)\n\nReturns slug, title, date, year, category and tags for each post.",
	}, s.handleListPosts)

	// get_post
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_post",
		Description: "Read one published post in full. Use this after list_posts returns a relevant slug.\n\nArgs:\n  slug: Post slug as returned by list_posts (e.g. '2025/hello-world')\n\nReturns the title, date, category, tags and markdown body.",
	}, s.handleGetPost)

	// list_categories
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_categories",
		Description: "List blog categories with their slugs and the number of published posts in each.",
	}, s.handleListCategories)

	// list_years
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_years",
		Description: "List the years that have published posts, newest first, with post counts.",
	}, s.handleListYears)
}

// Tool input types

type listPostsInput struct {
	Year     string `json:"year,omitempty" jsonschema:"Four-digit year, or 'undated'"`
	Category string `json:"category,omitempty" jsonschema:"Category name or slug"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Number of posts (default 20, max 100)"`
}

type getPostInput struct {
	Slug string `json:"slug" jsonschema:"Post slug as returned by list_posts"`
}

type emptyInput struct{}

// Tool handlers

func (s *Server) handleListPosts(ctx context.Context, req *mcp.CallToolRequest, input listPostsInput) (*mcp.CallToolResult, any, error) {
	records, err := s.svc.List(posts.Query{
		Year:     strings.TrimSpace(input.Year),
		Category: strings.TrimSpace(input.Category),
		Limit:    clampLimit(input.Limit),
	})
	if err != nil {
		s.log.Error("list posts", zap.Error(err))
		return textResult("Error: the content store could not be read."), nil, nil
	}
	if len(records) == 0 {
		return textResult("No published posts match."), nil, nil
	}
	data, _ := json.MarshalIndent(blog.Summarize(records), "", "  ")
	return textResult(string(data)), nil, nil
}

func (s *Server) handleGetPost(ctx context.Context, req *mcp.CallToolRequest, input getPostInput) (*mcp.CallToolResult, any, error) {
	post, err := s.svc.Post(input.Slug)
	switch {
	case errors.Is(err, content.ErrUnsafePath):
		return textResult("Error: slug must be a relative path inside the blog."), nil, nil
	case errors.Is(err, content.ErrNotFound):
		return textResult(fmt.Sprintf("Post not found: %s", input.Slug)), nil, nil
	case err != nil:
		s.log.Error("get post", zap.String("slug", input.Slug), zap.Error(err))
		return textResult("Error: the content store could not be read."), nil, nil
	}

	var b strings.Builder
	if suspicious(post.Body) {
		s.log.Warn("post body looks like a prompt injection", zap.String("slug", post.Slug))
		b.WriteString(injectionWarning)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "# %s\n\n", post.Title)
	if post.LongDate != "" {
		fmt.Fprintf(&b, "Date: %s\n", post.LongDate)
	}
	if post.Category != nil {
		fmt.Fprintf(&b, "Category: %s (%s)\n", post.Category.Name, post.Category.Slug)
	}
	if len(post.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: #%s\n", strings.Join(post.Tags, " #"))
	}
	b.WriteString("\n")
	b.WriteString(post.Body)
	return textResult(b.String()), nil, nil
}

func (s *Server) handleListCategories(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	cats, err := s.svc.Categories()
	if err != nil {
		s.log.Error("list categories", zap.Error(err))
		return textResult("Error: the content store could not be read."), nil, nil
	}
	data, _ := json.MarshalIndent(cats, "", "  ")
	return textResult(string(data)), nil, nil
}

func (s *Server) handleListYears(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	years, err := s.svc.Years()
	if err != nil {
		s.log.Error("list years", zap.Error(err))
		return textResult("Error: the content store could not be read."), nil, nil
	}
	data, _ := json.MarshalIndent(years, "", "  ")
	return textResult(string(data)), nil, nil
}

// Helpers

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
