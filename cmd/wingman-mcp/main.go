package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/DevRickLin/wingman/internal/infra/logger"
	"github.com/DevRickLin/wingman/internal/mcp"
)

var version = "dev"

// mcpConfig is the stdio server's environment. Logs go to stderr because
// stdout carries the protocol.
type mcpConfig struct {
	DashboardURL string `env:"WINGMAN_DASHBOARD_URL" envDefault:"http://127.0.0.1:8765"`
	LogLevel     string `env:"WINGMAN_LOG_LEVEL" envDefault:"info"`
}

func main() {
	_ = godotenv.Load()

	cfg := mcpConfig{}
	log := logger.NewWithWriter(os.Stderr, "wingman-mcp", "info", "json")
	if err := env.Parse(&cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse environment")
	}
	log = logger.NewWithWriter(os.Stderr, "wingman-mcp", cfg.LogLevel, "json")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("dashboard", cfg.DashboardURL).Str("version", version).Msg("MCP server starting")
	server := mcp.NewServer(mcp.NewClient(cfg.DashboardURL), version)
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("MCP server stopped")
	}
}
