package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sgx-labs/folio/internal/blog"
	"github.com/sgx-labs/folio/internal/content"
	"github.com/sgx-labs/folio/internal/posts"
)

// maxListLimit caps ?limit on /api/posts.
const maxListLimit = 1000

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleListPosts(c *gin.Context) {
	q := posts.Query{
		Year:     c.Query("year"),
		Category: c.Query("category"),
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		q.Limit = n
	}

	records, err := s.svc.List(q)
	if err != nil {
		s.apiBuildError(c, err)
		return
	}
	c.JSON(http.StatusOK, blog.Summarize(records))
}

func (s *Server) handleGetPost(c *gin.Context) {
	post, err := s.svc.Post(c.Param("slug"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, post)
	case errors.Is(err, content.ErrUnsafePath):
		writeError(c, http.StatusBadRequest, "invalid path")
	case errors.Is(err, content.ErrNotFound):
		writeError(c, http.StatusNotFound, "post not found")
	default:
		s.apiBuildError(c, err)
	}
}

func (s *Server) handleCategories(c *gin.Context) {
	cats, err := s.svc.Categories()
	if err != nil {
		s.apiBuildError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (s *Server) handleYears(c *gin.Context) {
	years, err := s.svc.Years()
	if err != nil {
		s.apiBuildError(c, err)
		return
	}
	c.JSON(http.StatusOK, years)
}

func (s *Server) apiBuildError(c *gin.Context, err error) {
	s.log.Error("build failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	writeError(c, http.StatusInternalServerError, "content store unavailable")
}

func writeError(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}
