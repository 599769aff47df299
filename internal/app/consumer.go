package app

import (
	"context"

	"go-payroll/internal/bootstrap"
	"go-payroll/internal/config"
	"go-payroll/internal/events"
	"go-payroll/internal/realtime"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RunConsumer is the standalone realtime gateway: it subscribes to the
// payroll channel and fans events out to websocket clients on
// REALTIME_PORT.
func RunConsumer(ctx context.Context, cfg *config.Config, serverCfg bootstrap.ServerConfig) error {
	logger := zap.L()

	infra, err := Connect(cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	hub := realtime.NewHub(logger)
	defer hub.Close()

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", health)
	router.GET("/ws", hub.ServeWS)

	go func() {
		if err := hub.Run(ctx, infra.Subscriber, events.PayrollChannel); err != nil && ctx.Err() == nil {
			logger.Named("app.consumer").Error("subscription stopped", zap.Error(err))
		}
	}()

	serverCfg.Port = cfg.RealtimePort
	return bootstrap.StartHTTPServer(ctx, router, serverCfg, bootstrap.NewStdoutAuditLogger(logger))
}
