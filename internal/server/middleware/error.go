package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nulzo/image-router-mcp/internal/core/domain"
	"github.com/nulzo/image-router-mcp/internal/logger"
	"github.com/nulzo/image-router-mcp/pkg/api"
)

// ErrorHandler converts errors attached by handlers into JSON responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var domainErr *domain.Error
		if errors.As(err, &domainErr) {
			if domainErr.Log != nil {
				logger.Error("request failed", zap.Error(domainErr.Log))
			}
			c.JSON(domainErr.Code, api.ErrorResponse{Message: domainErr.Message})
			c.Abort()
			return
		}

		// unknown error, catch-all 500
		logger.Error("unhandled request error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "An unexpected error occurred."})
		c.Abort()
	}
}
