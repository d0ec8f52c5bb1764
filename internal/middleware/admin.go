package middleware

import (
	"crypto/subtle"
	"os"

	"github.com/gin-gonic/gin"
)

// AdminKeyMiddleware guards the period-control and configuration endpoints.
// The admin console is a separate caller and authenticates with a static
// key from the environment.
func AdminKeyMiddleware() gin.HandlerFunc {
	expected := os.Getenv("ADMIN_ACCESS_KEY")

	return func(c *gin.Context) {
		if expected == "" {
			c.JSON(503, gin.H{"error": "admin access not configured"})
			c.Abort()
			return
		}

		key := c.GetHeader("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			c.JSON(403, gin.H{"error": "Forbidden"})
			c.Abort()
			return
		}

		c.Next()
	}
}
