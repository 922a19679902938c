package handlers

import (
	"net/http"
	"strings"

	"real-estate-marketplace/internal/search"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SearchHandler serves the listing search endpoints
type SearchHandler struct {
	service      *search.Service
	suggester    search.Suggester
	suggestLimit int
	logger       *zap.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service *search.Service, suggester search.Suggester, suggestLimit int, logger *zap.Logger) *SearchHandler {
	if suggestLimit <= 0 {
		suggestLimit = 10
	}
	return &SearchHandler{
		service:      service,
		suggester:    suggester,
		suggestLimit: suggestLimit,
		logger:       logger,
	}
}

// Search handles GET /api/search
func (h *SearchHandler) Search(c *gin.Context) {
	f, err := ParseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, f)
}

// SearchBounds handles GET /api/search/bounds, which requires a viewport
func (h *SearchHandler) SearchBounds(c *gin.Context) {
	f, err := ParseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if f.Bounds == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "north, south, east and west are required"})
		return
	}
	h.respond(c, f)
}

func (h *SearchHandler) respond(c *gin.Context, f search.Filters) {
	page, err := h.service.Search(c.Request.Context(), f, IsPrivileged(c))
	if err != nil {
		h.logger.Error("Search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// Suggestions handles GET /api/search/suggestions?q=
func (h *SearchHandler) Suggestions(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))

	suggestions, err := h.suggester.Suggest(c.Request.Context(), q, h.suggestLimit)
	if err != nil {
		h.logger.Error("Suggestions failed", zap.String("q", q), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "suggestions failed"})
		return
	}
	if suggestions == nil {
		suggestions = []search.Suggestion{}
	}
	c.JSON(http.StatusOK, gin.H{"data": suggestions})
}
