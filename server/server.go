// Package server exposes the store over HTTP.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jandrana/vectordb"
	"github.com/jandrana/vectordb/core"
)

// Server routes HTTP requests to store operations.
type Server struct {
	store  *vectordb.Store
	logger *slog.Logger
	engine *gin.Engine
}

// New creates a Server over the given store.
func New(store *vectordb.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{store: store, logger: logger}

	engine := gin.New()
	engine.Use(s.requestLog(), gin.Recovery())
	s.routes(engine)
	s.engine = engine
	return s
}

// Handler returns the http.Handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes(e *gin.Engine) {
	e.GET("/health", s.health)
	e.GET("/strategies", s.listStrategies)

	e.POST("/libraries", s.createLibrary)
	e.GET("/libraries", s.listLibraries)
	e.GET("/libraries/:id", s.getLibrary)
	e.GET("/libraries/:id/detail", s.getLibraryDetail)
	e.GET("/libraries/:id/documents", s.listLibraryDocuments)
	e.PATCH("/libraries/:id", s.updateLibrary)
	e.DELETE("/libraries/:id", s.deleteLibrary)
	e.POST("/libraries/:id/index", s.indexLibrary)
	e.POST("/libraries/:id/search", s.searchLibrary)

	e.POST("/documents", s.createDocument)
	e.GET("/documents", s.listDocuments)
	e.GET("/documents/:id", s.getDocument)
	e.GET("/documents/:id/detail", s.getDocumentDetail)
	e.GET("/documents/:id/chunks", s.listDocumentChunks)
	e.PATCH("/documents/:id", s.updateDocument)
	e.DELETE("/documents/:id", s.deleteDocument)

	e.POST("/chunks", s.createChunk)
	e.GET("/chunks", s.listChunks)
	e.GET("/chunks/:id", s.getChunk)
	e.PATCH("/chunks/:id", s.updateChunk)
	e.DELETE("/chunks/:id", s.deleteChunk)
}

// requestLog logs one line per request after it completes.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": s.store.Strategies()})
}

// pathID parses the :id path parameter. The bool reports success; on failure
// the response is already written.
func (s *Server) pathID(c *gin.Context) (uint32, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a non-negative integer"})
		return 0, false
	}
	return uint32(id), true
}

// fail maps a store error onto the HTTP status that describes whose fault it
// is: a missing entity or bad input is the client's, a provider outage is
// upstream's, anything else is ours.
func (s *Server) fail(c *gin.Context, err error) {
	var (
		notFound *core.EntityNotFoundError
		valErr   *core.ValidationError
		provErr  *core.EmbeddingProviderError
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &valErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &provErr):
		s.logger.Error("embedding provider failure", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		s.logger.Error("internal error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
