package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/saxenaaman628/badenya/config"
	"github.com/saxenaaman628/badenya/internal/app"
	"github.com/saxenaaman628/badenya/internal/logging"
	"github.com/saxenaaman628/badenya/internal/storage"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.String("env", cfg.Env), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open storage", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}

	if err := app.New(ctx, cfg, st, logger).Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
