package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nulzo/image-router-mcp/cmd"
	"github.com/nulzo/image-router-mcp/internal/config"
	"github.com/nulzo/image-router-mcp/internal/logger"
	"github.com/nulzo/image-router-mcp/internal/mcptool"
	"github.com/nulzo/image-router-mcp/internal/platform/otel"
	"github.com/nulzo/image-router-mcp/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Initialize(cfg.Server.Env)
	defer logger.Sync()

	cmd.CheckForUpdates()

	shutdown, err := otel.InitTracer(mcptool.ServerName, logger.Get(), os.Stderr)
	if err != nil {
		logger.Fatal("failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		_ = shutdown(context.Background())
	}()

	if creds := cfg.Resolve(config.Overrides{}); !creds.HasGemini() && !creds.HasOpenRouter() {
		logger.Warn("no provider credential configured; image tools will fail until GEMINI_API_KEY or OPENROUTER_API_KEY is set")
	}

	mcpServer := mcptool.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.MCP.Transport {
	case "http":
		srv := server.New(cfg, logger.Get(), mcpServer)
		if err := srv.Run(); err != nil {
			logger.Fatal("http transport failed", zap.Error(err))
		}
	default:
		logger.Info("serving MCP over stdio",
			zap.String("service", mcptool.ServerName),
			zap.String("version", mcptool.Version),
		)
		if err := mcpServer.ServeStdio(ctx); err != nil {
			logger.Fatal("stdio transport failed", zap.Error(err))
		}
	}
}
