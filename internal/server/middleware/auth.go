package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/image-router-mcp/pkg/api"
)

// Auth checks for a valid Bearer token in the Authorization header. An
// empty key list disables authentication entirely, which is the default for
// a locally run server.
func Auth(keys []string) gin.HandlerFunc {
	keyMap := make(map[string]bool, len(keys))
	for _, k := range keys {
		keyMap[k] = true
	}

	return func(c *gin.Context) {
		if len(keyMap) == 0 {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Message: "Missing Authorization header"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Message: "Invalid Authorization header format"})
			return
		}

		if !keyMap[parts[1]] {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Message: "Invalid API Key"})
			return
		}
		c.Next()
	}
}
