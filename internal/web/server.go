// Package web serves the blog over HTTP: rendered pages under the route
// prefix and a read-only JSON API under /api.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sgx-labs/folio/internal/blog"
	"github.com/sgx-labs/folio/internal/theme"
)

// Options configures a Server.
type Options struct {
	Service *blog.Service
	Site    theme.Site
	// Prefix is the listing prefix, e.g. "/blog". Empty mounts pages at "/".
	Prefix string
	// StaticDir, when set, is served for paths that match no page.
	StaticDir string
	// LocalOnly rejects requests whose Host is not a loopback name.
	LocalOnly bool
	Version   string
	Logger    *zap.Logger
}

// Server holds the routes. It keeps no index between requests.
type Server struct {
	svc       *blog.Service
	theme     *theme.Theme
	site      theme.Site
	prefix    string
	staticDir string
	version   string
	log       *zap.Logger
	engine    *gin.Engine
}

// New builds the gin engine for opts.
func New(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, errors.New("web: blog service is required")
	}
	th, err := theme.New(opts.Prefix)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		svc:       opts.Service,
		theme:     th,
		site:      opts.Site,
		prefix:    opts.Prefix,
		staticDir: opts.StaticDir,
		version:   opts.Version,
		log:       log,
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log), securityHeaders())
	if opts.LocalOnly {
		router.Use(localhostOnly())
	}
	s.routes(router)
	s.engine = router
	return s, nil
}

func (s *Server) routes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/posts", s.handleListPosts)
		api.GET("/posts/*slug", s.handleGetPost)
		api.GET("/categories", s.handleCategories)
		api.GET("/years", s.handleYears)
	}

	if s.prefix != "" {
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusFound, s.prefix+"/")
		})
		router.GET(s.prefix+"/*path", s.handlePage)
	}
	router.NoRoute(s.handleNoRoute)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("serving blog", zap.String("url", "http://"+listener.Addr().String()+s.prefix+"/"))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// --- Middleware ---

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy",
			"default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:")
		c.Next()
	}
}

func localhostOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		host := c.Request.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		host = strings.Trim(host, "[]")

		if host == "localhost" {
			c.Next()
			return
		}
		if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
			c.Next()
			return
		}
		c.AbortWithStatus(http.StatusForbidden)
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case strings.HasPrefix(c.Request.URL.Path, "/api/health"):
			log.Debug("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// --- Static files ---

// staticFile returns the file under the static dir that urlPath names, if any.
func (s *Server) staticFile(urlPath string) (string, bool) {
	if s.staticDir == "" {
		return "", false
	}
	clean := filepath.ToSlash(filepath.Clean("/" + urlPath))
	if strings.Contains(clean, "/.") {
		return "", false
	}
	full := filepath.Join(s.staticDir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return full, true
}

func (s *Server) handleNoRoute(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.AbortWithStatus(http.StatusMethodNotAllowed)
		return
	}
	if file, ok := s.staticFile(c.Request.URL.Path); ok {
		c.File(file)
		return
	}
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		writeError(c, http.StatusNotFound, "not found")
		return
	}
	if s.prefix == "" {
		s.dispatch(c, c.Request.URL.Path)
		return
	}
	s.renderNotFound(c, c.Request.URL.Path)
}
