package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kjstillabower/medicure-service/internal/app"
	"github.com/kjstillabower/medicure-service/internal/config"
	"github.com/kjstillabower/medicure-service/internal/observability"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("wiring", zap.Error(err))
	}
	defer application.Close()
	if cfg.GRPCEnabled() {
		logger.Info("grpc enabled", zap.String("port", cfg.GRPCPort))
	} else {
		logger.Info("grpc disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
