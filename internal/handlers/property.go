package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"real-estate-marketplace/internal/models"
	"real-estate-marketplace/internal/reviews"
	"real-estate-marketplace/internal/search"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PropertyHandler serves the per-listing discovery endpoints
type PropertyHandler struct {
	search  *search.Service
	reviews *reviews.Service
	logger  *zap.Logger
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(searchService *search.Service, reviewService *reviews.Service, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{
		search:  searchService,
		reviews: reviewService,
		logger:  logger,
	}
}

// Nearby handles GET /api/properties/:id/nearby
func (h *PropertyHandler) Nearby(c *gin.Context) {
	id, ok := propertyID(c)
	if !ok {
		return
	}

	p := queryParser{c: c}
	params := search.NearbyParams{Radius: p.number("radius")}
	if limit := p.integer("limit"); limit != nil {
		params.Limit = *limit
	}
	if v := c.Query("property_type"); v != "" {
		params.PropertyType = models.PropertyType(v)
		if !params.PropertyType.Valid() {
			p.fail("property_type", v)
		}
	}
	if p.err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": p.err.Error()})
		return
	}

	results, err := h.search.Nearby(c.Request.Context(), id, params)
	h.respondList(c, id, results, err)
}

// Similar handles GET /api/properties/:id/similar
func (h *PropertyHandler) Similar(c *gin.Context) {
	id, ok := propertyID(c)
	if !ok {
		return
	}

	p := queryParser{c: c}
	limit := p.integer("limit")
	if p.err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": p.err.Error()})
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	results, err := h.search.Similar(c.Request.Context(), id, n)
	h.respondList(c, id, results, err)
}

// RatingSummary handles GET /api/properties/:id/rating-summary
func (h *PropertyHandler) RatingSummary(c *gin.Context) {
	id, ok := propertyID(c)
	if !ok {
		return
	}

	summary, err := h.reviews.RatingSummary(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Rating summary failed", zap.Uint("property_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rating summary failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *PropertyHandler) respondList(c *gin.Context, id uint, results []search.PropertySummary, err error) {
	if errors.Is(err, search.ErrPropertyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	if err != nil {
		h.logger.Error("Property lookup failed", zap.Uint("property_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results})
}

func propertyID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return 0, false
	}
	return uint(id), true
}
