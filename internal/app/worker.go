package app

import (
	"context"

	"go-payroll/internal/config"
	"go-payroll/internal/employee"
	"go-payroll/internal/events"
	"go-payroll/internal/jobqueue"
	"go-payroll/internal/payroll"
	"go-payroll/internal/shared/cache"
	"go-payroll/internal/store"
	"go-payroll/internal/worker"

	"go.uber.org/zap"
)

// RunWorker is the single queue consumer. It returns once ctx is cancelled
// and the current iteration has finished.
func RunWorker(ctx context.Context, cfg *config.Config) error {
	logger := zap.L()

	infra, err := Connect(cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	w, dispatcher, err := NewWorker(ctx, cfg, infra, logger)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	if err := w.Run(ctx); err != nil {
		return err
	}

	stats := w.Stats()
	logger.Named("app.worker").Info("worker shutting down",
		zap.Int64("processed", stats.Processed),
		zap.Int64("skipped", stats.Skipped),
		zap.Int64("failed", stats.Failed),
	)
	return nil
}

// NewWorker builds the worker over the shared queue; the returned dispatcher
// holds the single consumer claim until closed.
func NewWorker(ctx context.Context, cfg *config.Config, infra *Infra, logger *zap.Logger) (*worker.Worker, *jobqueue.Dispatcher, error) {
	st := store.New(infra.Redis)
	employeeRepo := employee.NewRepository(st)
	payrollService := payroll.NewService(
		payroll.NewRepository(st),
		employeeRepo,
		nil,
		cache.New(infra.Redis, cfg.CacheTTL, logger),
		logger,
	)

	dispatcher, err := jobqueue.NewDispatcher(ctx, jobqueue.New(infra.Redis, ""), jobqueue.DispatcherConfig{
		Mode:        jobqueue.Blocking,
		PollTimeout: cfg.WorkerPollTimeout,
		ClaimTTL:    cfg.WorkerClaimTTL,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	w := worker.New(
		dispatcher,
		employeeRepo,
		payrollService,
		events.NewPayrollPublisher(infra.Publisher),
		worker.Config{Backoff: cfg.WorkerBackoff},
		logger,
	)
	return w, dispatcher, nil
}
