package web

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sgx-labs/folio/internal/content"
	"github.com/sgx-labs/folio/internal/theme"
)

// handlePage serves everything under the prefix.
func (s *Server) handlePage(c *gin.Context) {
	s.dispatch(c, c.Param("path"))
}

// dispatch routes a path relative to the prefix:
//
//	""               overview
//	archive/<year>   year listing
//	category/<slug>  category listing
//	anything else    single post
//
// A post stored under a top-level "archive" or "category" directory with
// exactly one more segment is shadowed by the listing routes.
func (s *Server) dispatch(c *gin.Context, rel string) {
	trimmed := strings.Trim(rel, "/")
	parts := strings.Split(trimmed, "/")

	switch {
	case trimmed == "":
		s.renderOverview(c)
	case len(parts) == 2 && parts[0] == "archive":
		s.renderYear(c, parts[1])
	case len(parts) == 2 && parts[0] == "category":
		s.renderCategory(c, parts[1])
	default:
		s.renderPost(c, trimmed)
	}
}

func (s *Server) renderOverview(c *gin.Context) {
	ov, err := s.svc.Overview()
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderHTML(c, http.StatusOK, theme.Index, theme.Page{
		Site:        s.site,
		Description: s.site.Description,
		Path:        s.prefix + "/",
		Data:        ov,
	})
}

func (s *Server) renderYear(c *gin.Context, year string) {
	l, err := s.svc.Year(year)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderHTML(c, http.StatusOK, theme.Listing, theme.Page{
		Site:        s.site,
		Title:       l.Label,
		Description: l.Description,
		Path:        s.theme.YearURL(year),
		Data:        l,
	})
}

func (s *Server) renderCategory(c *gin.Context, requested string) {
	l, err := s.svc.Category(requested)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderHTML(c, http.StatusOK, theme.Listing, theme.Page{
		Site:        s.site,
		Title:       l.Label,
		Description: l.Description,
		Path:        s.theme.CategoryURL(l.Key),
		Data:        l,
	})
}

func (s *Server) renderPost(c *gin.Context, slug string) {
	post, err := s.svc.Post(slug)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) || errors.Is(err, content.ErrUnsafePath) {
			s.renderNotFound(c, c.Request.URL.Path)
			return
		}
		s.renderError(c, err)
		return
	}
	s.renderHTML(c, http.StatusOK, theme.Post, theme.Page{
		Site:  s.site,
		Title: post.Title,
		Path:  s.theme.PostURL(post.Slug),
		Data:  post,
	})
}

func (s *Server) renderNotFound(c *gin.Context, path string) {
	s.renderHTML(c, http.StatusNotFound, theme.NotFound, theme.Page{
		Site:  s.site,
		Title: "Not found",
		Data:  struct{ Path string }{Path: path},
	})
}

// renderError reports a failed build. The store is unreadable for this
// request only; the next request tries again.
func (s *Server) renderError(c *gin.Context, err error) {
	s.log.Error("build failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("content store unavailable\n"))
}

func (s *Server) renderHTML(c *gin.Context, status int, page string, data theme.Page) {
	var buf bytes.Buffer
	if err := s.theme.Render(&buf, page, data); err != nil {
		s.log.Error("render page", zap.String("page", page), zap.Error(err))
		c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("render failed\n"))
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
