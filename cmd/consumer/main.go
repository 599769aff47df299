package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-payroll/internal/app"
	"go-payroll/internal/bootstrap"
	"go-payroll/internal/config"
	"go-payroll/internal/shared/apperror"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config failed", zap.Error(err))
	}

	apperror.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = app.RunConsumer(ctx, cfg, bootstrap.ServerConfig{
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	})
	if err != nil {
		logger.Fatal("run consumer failed", zap.Error(err))
	}
}
