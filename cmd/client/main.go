package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/narratlas/narratlas/internal/client/cli"
	"github.com/narratlas/narratlas/internal/client/config"
	"github.com/narratlas/narratlas/internal/logging"
)

// set via -ldflags at build time
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	fmt.Printf("Narratlas CLI\nVersion: %s\nBuild date: %s\n", version, buildDate)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.LoadConfig()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	app, err := cli.NewApp(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to start", "error", err)
		os.Exit(1)
	}

	app.Run(ctx)
}
