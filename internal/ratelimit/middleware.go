package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware rejects requests over the limit with 429, keyed by client IP
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !rl.AllowRequest(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
				"stats": rl.GetStats(key),
			})
			return
		}
		c.Next()
	}
}

// StatsHandler reports the caller's current usage
func (rl *RateLimiter) StatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, rl.GetStats(c.ClientIP()))
}
