package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/image-router-mcp/internal/mcptool"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": mcptool.ServerName,
		"version": mcptool.Version,
	})
}
