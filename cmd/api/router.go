package main

import (
	"net/http"
	"time"

	"real-estate-marketplace/internal/config"
	"real-estate-marketplace/internal/handlers"
	"real-estate-marketplace/internal/metrics"
	"real-estate-marketplace/internal/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type routerDeps struct {
	config      *config.Config
	auth        *handlers.Authenticator
	rateLimiter *ratelimit.RateLimiter
	search      *handlers.SearchHandler
	property    *handlers.PropertyHandler
	admin       *handlers.AdminHandler
}

func newRouter(d routerDeps) *gin.Engine {
	if d.config.Logging.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), metrics.Middleware())

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.config.HTTP.AllowOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", healthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", d.auth.IdentifyCaller())
	{
		searchRoutes := api.Group("/search", d.rateLimiter.Middleware())
		searchRoutes.GET("", d.search.Search)
		searchRoutes.GET("/bounds", d.search.SearchBounds)
		searchRoutes.GET("/suggestions", d.search.Suggestions)

		api.GET("/properties/:id/nearby", d.rateLimiter.Middleware(), d.property.Nearby)
		api.GET("/properties/:id/similar", d.rateLimiter.Middleware(), d.property.Similar)
		api.GET("/properties/:id/rating-summary", d.property.RatingSummary)

		// Rate limiter stats endpoint
		api.GET("/ratelimit/stats", d.rateLimiter.StatsHandler)
	}

	admin := r.Group("/api/admin", d.auth.RequireAdmin())
	{
		admin.POST("/search/reindex", d.admin.ReindexLocations)
		admin.POST("/saved-searches/run", d.admin.RunSavedSearches)
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}
