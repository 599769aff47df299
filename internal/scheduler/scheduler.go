package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-payroll/internal/employee"
	"go-payroll/internal/jobqueue"
	"go-payroll/internal/payrollcalc"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const RequestedBy = "cron"

//go:generate mockgen -source=scheduler.go -destination=mock/scheduler_mock.go -package=mock
type EmployeeLister interface {
	ListAll(ctx context.Context) ([]employee.Employee, error)
}

type JobQueue interface {
	Push(ctx context.Context, job jobqueue.PayrollJob) error
}

// Scheduler queues a payroll job for every employee on a cron schedule.
type Scheduler struct {
	employees EmployeeLister
	queue     JobQueue
	now       func() time.Time
	log       *zap.Logger
}

func New(employees EmployeeLister, queue JobQueue, logger ...*zap.Logger) *Scheduler {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Scheduler{
		employees: employees,
		queue:     queue,
		now:       time.Now,
		log:       l.Named("payroll.scheduler"),
	}
}

// WithClock replaces the clock used to pick the period.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// QueueMonthly pushes one job per employee for the current period and
// returns how many were queued. A failed push does not stop the run.
func (s *Scheduler) QueueMonthly(ctx context.Context) (int, error) {
	all, err := s.employees.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	period := jobqueue.CurrentPeriod(s.now())
	queued := 0
	var errs []error
	for _, e := range all {
		job := jobqueue.PayrollJob{
			EmployeeID: e.ID,
			Period:     period,
			PayrollInput: payrollcalc.Input{
				Basic:                  e.BasicSalary,
				Allowances:             e.Allowances,
				ProfessionalTaxCountry: payrollcalc.DefaultCountry,
			},
			RequestedBy: RequestedBy,
		}
		if err := s.queue.Push(ctx, job); err != nil {
			errs = append(errs, fmt.Errorf("employee %s: %w", e.ID, err))
			continue
		}
		queued++
	}
	return queued, errors.Join(errs...)
}

// Start registers the monthly run under schedule (standard five-field cron) and
// stops the cron once ctx is done.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	logger := cronLogger{s.log.Sugar()}
	c := cron.New(cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))

	_, err := c.AddFunc(schedule, func() {
		s.log.Info("queue monthly payroll for all employees")
		n, err := s.QueueMonthly(ctx)
		if err != nil {
			s.log.Error("cron run incomplete", zap.Int("queued", n), zap.Error(err))
			return
		}
		s.log.Info("cron run finished", zap.Int("queued", n))
	})
	if err != nil {
		return fmt.Errorf("invalid CRON_SCHEDULE %q: %w", schedule, err)
	}

	c.Start()
	s.log.Info("cron scheduled", zap.String("schedule", schedule))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
