package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go-payroll/internal/employee"
	"go-payroll/internal/events"
	"go-payroll/internal/jobqueue"
	"go-payroll/internal/payroll"
	"go-payroll/internal/payrollcalc"
	"go-payroll/internal/shared/apperror"

	"go.uber.org/zap"
)

const DefaultBackoff = time.Second

type State int32

const (
	Idle State = iota
	Fetching
	Resolving
	Computing
	Persisting
	Publishing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Resolving:
		return "resolving"
	case Computing:
		return "computing"
	case Persisting:
		return "persisting"
	case Publishing:
		return "publishing"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

//go:generate mockgen -source=worker.go -destination=mock/worker_mock.go -package=mock
type Source interface {
	Next(ctx context.Context) (jobqueue.PayrollJob, error)
}

type EmployeeFinder interface {
	FindByID(ctx context.Context, id string) (*employee.Employee, error)
}

type PayrollSaver interface {
	SaveGenerated(ctx context.Context, p *payroll.Payroll) (bool, error)
}

type Notifier interface {
	PublishGenerated(ctx context.Context, event events.PayrollGeneratedEvent) error
}

type Config struct {
	Backoff time.Duration
}

type Stats struct {
	Processed int64
	Skipped   int64
	Failed    int64
}

// Worker turns queued payroll jobs into stored payroll records, one job at
// a time.
type Worker struct {
	source    Source
	employees EmployeeFinder
	payrolls  PayrollSaver
	notifier  Notifier
	calculate func(payrollcalc.Input) (payrollcalc.Result, error)
	backoff   time.Duration

	state     atomic.Int32
	processed atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64

	log *zap.Logger
}

func New(source Source, employees EmployeeFinder, payrolls PayrollSaver, notifier Notifier, cfg Config, logger ...*zap.Logger) *Worker {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	return &Worker{
		source:    source,
		employees: employees,
		payrolls:  payrolls,
		notifier:  notifier,
		calculate: payrollcalc.Calculate,
		backoff:   cfg.Backoff,
		log:       l.Named("payroll.worker"),
	}
}

func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) Stats() Stats {
	return Stats{
		Processed: w.processed.Load(),
		Skipped:   w.skipped.Load(),
		Failed:    w.failed.Load(),
	}
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
}

// Run processes jobs until ctx is cancelled. A failed iteration is logged
// and followed by the backoff delay; the loop itself never stops on error.
// While another consumer holds the queue the worker waits in the same way
// without counting failures.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("payroll worker started", zap.Duration("backoff", w.backoff))
	defer w.log.Info("payroll worker stopped")

	for ctx.Err() == nil {
		err := w.ProcessNext(ctx)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		if errors.Is(err, jobqueue.ErrConsumerActive) {
			w.log.Warn("another consumer holds the queue, standing by")
		} else {
			w.failed.Add(1)
			w.log.Error("payroll iteration failed", zap.Error(err))
		}
		if !sleep(ctx, w.backoff) {
			break
		}
	}
	w.setState(Idle)
	return nil
}

// ProcessNext runs one iteration. An empty poll and a job for an unknown
// employee both return nil.
func (w *Worker) ProcessNext(ctx context.Context) (err error) {
	defer func() {
		state := w.State()
		w.setState(Idle)
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic in %s: %v", state, r)
			return
		}
		if err != nil {
			err = fmt.Errorf("%s: %w", state, err)
		}
	}()

	w.setState(Fetching)
	job, err := w.source.Next(ctx)
	if errors.Is(err, jobqueue.ErrEmpty) {
		return nil
	}
	if err != nil {
		return err
	}

	log := w.log.With(zap.String("employee", job.EmployeeID), zap.String("period", job.Period))
	log.Info("picked job", zap.String("requested_by", job.RequestedBy))

	w.setState(Resolving)
	emp, err := w.employees.FindByID(ctx, job.EmployeeID)
	if apperror.IsNotFound(err) {
		log.Warn("employee not found")
		w.skipped.Add(1)
		return nil
	}
	if err != nil {
		return err
	}

	w.setState(Computing)
	result, err := w.calculate(job.PayrollInput)
	if err != nil {
		return err
	}

	w.setState(Persisting)
	rec := &payroll.Payroll{
		Employee: job.EmployeeID,
		EmployeeSnapshot: payroll.EmployeeSnapshot{
			EmployeeID:  emp.EmployeeID,
			Name:        emp.FullName(),
			Designation: emp.Designation,
			Department:  emp.Department,
		},
		Period:          job.Period,
		GrossPay:        result.GrossPay,
		TotalDeductions: result.TotalDeductions,
		NetPay:          result.NetPay,
		Breakdown:       result.Breakdown,
		Status:          payroll.StatusGenerated,
	}
	created, err := w.payrolls.SaveGenerated(ctx, rec)
	if err != nil {
		return err
	}

	w.setState(Publishing)
	if err := w.notifier.PublishGenerated(ctx, events.PayrollGeneratedEvent{
		ID:       rec.ID,
		Employee: rec.Employee,
		Period:   rec.Period,
		NetPay:   rec.NetPay,
	}); err != nil {
		return err
	}

	w.processed.Add(1)
	log.Info("payroll generated",
		zap.String("id", rec.ID),
		zap.Bool("created", created),
		zap.Float64("net_pay", rec.NetPay),
	)
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
