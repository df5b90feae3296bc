package middleware

import (
	"os"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets the response headers for a JSON-only API: no
// sniffing, no framing, no caching of per-user routine data.
func SecurityHeaders() gin.HandlerFunc {
	isProduction := os.Getenv("RITUAL_SERVER_ENV") == "production"

	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Scores, streaks, and skip history are per-user; nothing the API
		// returns is shared-cacheable
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")

		// HSTS only where TLS is terminated for real
		if isProduction {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		// The API never serves HTML; lock the CSP down completely
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		c.Next()
	}
}
