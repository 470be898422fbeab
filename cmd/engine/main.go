package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/NxTech4021/dl-backend-sub000/internal/app"
	"github.com/NxTech4021/dl-backend-sub000/internal/config"
	"github.com/NxTech4021/dl-backend-sub000/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.AppEnv)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	engine, err := app.NewEngine(cfg, logger)
	if err != nil {
		logger.Error("build engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Error("close storage", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("sweeper starting", "interval", cfg.SweepInterval.String())
	engine.Sweeper.Run(ctx)

	logger.Info("engine stopped")
}
