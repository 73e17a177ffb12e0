package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/image-router-mcp/internal/config"
)

type ModelHandler struct {
	cfg *config.Config
}

func NewModelHandler(cfg *config.Config) *ModelHandler {
	return &ModelHandler{cfg: cfg}
}

func (h *ModelHandler) ListModels(c *gin.Context) {
	models, err := chatService(h.cfg).ListModels(c.Request.Context(), c.Query("filter"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   models,
	})
}
