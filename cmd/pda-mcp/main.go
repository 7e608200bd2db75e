// Command pda-mcp serves the kernel over the Model Context Protocol on
// stdin/stdout, so an external NL-to-DSL translator can validate and submit
// statements as MCP tools.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ssbking/personal-digital-authority/internal/config"
	"github.com/ssbking/personal-digital-authority/internal/kernel"
	"github.com/ssbking/personal-digital-authority/internal/mcp"
	"github.com/ssbking/personal-digital-authority/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// Stdout carries the MCP protocol; all logging goes to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	k, err := kernel.New(cfg, kernel.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("kernel: %w", err)
	}
	defer func() { _ = k.Close() }()

	logger.Info("pda-mcp serving on stdio", "version", version)
	return mcp.New(k, logger, version).ServeStdio()
}
