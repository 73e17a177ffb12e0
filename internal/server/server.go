package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nulzo/image-router-mcp/internal/config"
	"github.com/nulzo/image-router-mcp/internal/mcptool"
	"github.com/nulzo/image-router-mcp/internal/server/validator"
)

// Server is the optional HTTP transport: it hosts the MCP streamable
// handler next to a small REST surface for health checks, model listing and
// chat passthrough. Stdio remains the default transport.
type Server struct {
	router *gin.Engine
	config *config.Config
	logger *zap.Logger
	mcp    *mcptool.Server
}

func New(cfg *config.Config, logger *zap.Logger, mcp *mcptool.Server) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.InitValidator()

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		router: engine,
		config: cfg,
		logger: logger,
		mcp:    mcp,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run() error {
	s.logger.Info("http transport listening", zap.String("port", s.config.Server.Port))
	return s.router.Run(":" + s.config.Server.Port)
}
