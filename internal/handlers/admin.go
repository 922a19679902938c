package handlers

import (
	"context"
	"net/http"
	"time"

	"real-estate-marketplace/internal/database"
	"real-estate-marketplace/internal/scheduler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LocationSource lists the distinct locations of approved listings
type LocationSource interface {
	DistinctLocations() ([]database.Location, error)
}

// LocationIndexer replaces the contents of the suggestion index
type LocationIndexer interface {
	Reindex(locations []database.Location) (int, error)
}

// SavedSearchRunner evaluates saved searches on demand
type SavedSearchRunner interface {
	RunNow(ctx context.Context) (scheduler.RunResult, error)
}

// AdminHandler handles admin-related requests
type AdminHandler struct {
	locations LocationSource
	indexer   LocationIndexer
	runner    SavedSearchRunner
	logger    *zap.Logger
}

// NewAdminHandler creates a new admin handler. A nil indexer or runner
// makes the matching endpoint report 503.
func NewAdminHandler(locations LocationSource, indexer LocationIndexer, runner SavedSearchRunner, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		locations: locations,
		indexer:   indexer,
		runner:    runner,
		logger:    logger,
	}
}

// ReindexLocations rebuilds the suggestion index from the listings table
func (h *AdminHandler) ReindexLocations(c *gin.Context) {
	if h.indexer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search index is not configured"})
		return
	}

	start := time.Now()
	locations, err := h.locations.DistinctLocations()
	if err != nil {
		h.logger.Error("Failed to load locations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	indexed, err := h.indexer.Reindex(locations)
	if err != nil {
		h.logger.Error("Failed to reindex locations", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("Location index rebuilt",
		zap.Int("locations", len(locations)),
		zap.Int("documents", indexed),
		zap.Duration("duration", time.Since(start)))

	c.JSON(http.StatusOK, gin.H{
		"message":   "Location index rebuilt",
		"locations": len(locations),
		"documents": indexed,
	})
}

// RunSavedSearches triggers an immediate saved-search notification run
func (h *AdminHandler) RunSavedSearches(c *gin.Context) {
	if h.runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Saved search notifications are disabled"})
		return
	}

	result, err := h.runner.RunNow(c.Request.Context())
	if err != nil {
		h.logger.Error("Saved search run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "result": result})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Saved search run completed",
		"result":  result,
	})
}
