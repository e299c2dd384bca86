package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	appconfig "github.com/callsift/callsift/internal/config"
	conflictworker "github.com/callsift/callsift/internal/worker/conflict"
	"github.com/callsift/callsift/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithOptions(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := conflictworker.Run(ctx, cfg, logger); err != nil {
		logger.Error("conflict worker exited with error", "error", err)
		os.Exit(1)
	}
}
