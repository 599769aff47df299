package app

import (
	"context"
	"slices"
	"time"

	"go-payroll/internal/config"
	"go-payroll/internal/events"
	"go-payroll/internal/middleware"
	"go-payroll/internal/realtime"
	"go-payroll/internal/scheduler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp connects infrastructure, registers every module on router and
// starts the pieces that live with the API process: the websocket hub
// subscription and, when enabled, the cron scheduler. The returned func
// releases everything BuildApp opened.
func BuildApp(ctx context.Context, router *gin.Engine, cfg *config.Config) (func(), error) {
	logger := zap.L()
	if err := cfg.RequireJWTSecret(); err != nil {
		return nil, err
	}

	infra, err := Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	hub, err := Mount(ctx, router, cfg, infra, logger)
	if err != nil {
		infra.Close()
		return nil, err
	}

	return func() {
		hub.Close()
		infra.Close()
	}, nil
}

// Mount wires routes and background loops onto already connected
// infrastructure.
func Mount(ctx context.Context, router *gin.Engine, cfg *config.Config, infra *Infra, logger *zap.Logger) (*realtime.Hub, error) {
	router.Use(
		corsMiddleware(cfg.CORSAllowOrigins),
		middleware.ContextLogger(logger),
	)

	hub := realtime.NewHub(logger)
	mods, err := registerModules(router, cfg, infra.Redis, hub, logger)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := hub.Run(ctx, infra.Subscriber, events.PayrollChannel); err != nil && ctx.Err() == nil {
			logger.Error("realtime subscription stopped", zap.Error(err))
		}
	}()

	if cfg.EnableCron {
		sched := scheduler.New(mods.employees, mods.queue, logger)
		if err := sched.Start(ctx, cfg.CronSchedule); err != nil {
			return nil, err
		}
	}

	return hub, nil
}

// corsMiddleware allows any origin unless CORS_ALLOW_ORIGINS lists specific
// ones; credentials are only allowed for a fixed list.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
