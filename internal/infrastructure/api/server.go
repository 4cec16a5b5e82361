package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
	"NewsAggregator/internal/usecase"
)

const (
	defaultPerPage = 60
	maxPerPage     = 200
	topDays        = 10
)

// CycleRunner triggers and reports ingestion cycles.
type CycleRunner interface {
	RunCycle(ctx context.Context) (domain.CycleReport, error)
	Status() domain.PipelineStatus
}

// Server exposes the stored articles and an on-demand refresh over HTTP.
type Server struct {
	engine *gin.Engine
	store  ports.ArticleStore
	runner CycleRunner
	logger *slog.Logger
}

// NewServer builds the router.
func NewServer(store ports.ArticleStore, runner CycleRunner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		store:  store,
		runner: runner,
		logger: logger,
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/news", s.listNews)
	router.GET("/news/grouped", s.groupedNews)
	router.GET("/stats", s.stats)
	router.GET("/fetch-news", s.fetchNews)
	router.GET("/health", s.health)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	s.engine = router
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) listNews(c *gin.Context) {
	page, perPage := pagination(c)

	category := domain.Category(c.Query("category"))
	if category != "" && !category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category " + string(category)})
		return
	}

	ctx := c.Request.Context()
	total, err := s.store.Count(ctx, category)
	if err != nil {
		s.internalError(c, "count articles", err)
		return
	}

	articles, err := s.store.List(ctx, ports.ListQuery{
		Offset:   (page - 1) * perPage,
		Limit:    perPage,
		Category: category,
	})
	if err != nil {
		s.internalError(c, "list articles", err)
		return
	}
	if articles == nil {
		articles = []domain.Article{}
	}

	c.JSON(http.StatusOK, gin.H{
		"articles":     articles,
		"total":        total,
		"pages":        (total + perPage - 1) / perPage,
		"current_page": page,
	})
}

// groupedNews returns the same page of every category.
func (s *Server) groupedNews(c *gin.Context) {
	page, perPage := pagination(c)

	body := gin.H{}
	for _, cat := range domain.Categories {
		articles, err := s.store.List(c.Request.Context(), ports.ListQuery{
			Offset:   (page - 1) * perPage,
			Limit:    perPage,
			Category: cat,
		})
		if err != nil {
			s.internalError(c, "list "+string(cat), err)
			return
		}
		if articles == nil {
			articles = []domain.Article{}
		}
		body[string(cat)] = articles
	}
	body["pagination"] = gin.H{"current_page": page, "per_page": perPage}

	c.JSON(http.StatusOK, body)
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context(), topDays)
	if err != nil {
		s.internalError(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// fetchNews runs one cycle synchronously; a disconnecting client does not
// cancel it.
func (s *Server) fetchNews(c *gin.Context) {
	report, err := s.runner.RunCycle(context.WithoutCancel(c.Request.Context()))
	switch {
	case errors.Is(err, usecase.ErrCycleInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   err.Error(),
			"fetched": report.Fetched,
			"added":   report.Persisted,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "news refreshed",
		"fetched":        report.Fetched,
		"added":          report.Persisted,
		"classified":     report.Classified,
		"failed_sources": report.FailedSources,
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"pipeline": s.runner.Status(),
	})
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.logger.Error("api request failed", "op", op, "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func pagination(c *gin.Context) (page, perPage int) {
	page = queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage = queryInt(c, "per_page", defaultPerPage)
	switch {
	case perPage < 1:
		perPage = defaultPerPage
	case perPage > maxPerPage:
		perPage = maxPerPage
	}
	return page, perPage
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
