// Package middleware provides HTTP middleware for the Strava auth proxy:
// permissive CORS for browser-based callers and request ID tagging with
// request/response logging.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS responds with permissive cross-origin headers on every route and
// short-circuits OPTIONS preflight requests. The proxy is meant to sit
// behind browser clients on arbitrary origins.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
