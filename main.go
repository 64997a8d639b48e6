package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/vadiminshakov/tradeboard/config"
	"github.com/vadiminshakov/tradeboard/internal/app"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Get()
	if err != nil {
		logger.Fatal("failed to get configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dashboard, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to assemble dashboard", zap.Error(err))
	}

	logger.Info("dashboard starting",
		zap.String("pair", cfg.Pair.String()),
		zap.String("api", cfg.APIBase),
		zap.String("ws", cfg.WSURL))

	if err := dashboard.Run(ctx); err != nil {
		logger.Fatal("dashboard stopped", zap.Error(err))
	}
}
