package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nulzo/image-router-mcp/internal/mcptool"
	"github.com/nulzo/image-router-mcp/internal/server/middleware"
	v1 "github.com/nulzo/image-router-mcp/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	// Global Middleware
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Tracing(mcptool.ServerName))
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler())

	// Health Check (Public)
	healthHandler := v1.NewHealthHandler()
	s.router.GET("/health", healthHandler.Health)

	// The MCP protocol endpoint. The streamable handler owns everything
	// below /mcp.
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp.MCPServer()
	}, nil)
	mcpGroup := s.router.Group("/mcp")
	mcpGroup.Use(middleware.Auth(s.config.Server.APIKeys))
	mcpGroup.Any("", gin.WrapH(streamable))
	mcpGroup.Any("/*path", gin.WrapH(streamable))

	// REST convenience surface
	api := s.router.Group("/v1")
	api.Use(middleware.Auth(s.config.Server.APIKeys))
	{
		chatHandler := v1.NewChatHandler(s.config)
		api.POST("/chat/completions", chatHandler.CreateCompletion)

		modelHandler := v1.NewModelHandler(s.config)
		api.GET("/models", modelHandler.ListModels)
	}
}
