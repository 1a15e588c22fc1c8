// Package main is the entry point for the linkup API server.
//
// main stays minimal: read configuration, build the logger, hand both to
// server.New and block in Start. Everything else lives under internal/.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/linkup/internal/config"
	"github.com/sakif/linkup/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The configured logger does not exist yet.
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
