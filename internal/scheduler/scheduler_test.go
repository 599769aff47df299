package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-payroll/internal/employee"
	"go-payroll/internal/jobqueue"
	"go-payroll/internal/payrollcalc"
	"go-payroll/internal/scheduler"
	schedulerMock "go-payroll/internal/scheduler/mock"
	"go-payroll/internal/shared/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC)
}

func TestScheduler_QueueMonthly(t *testing.T) {
	ctx := context.Background()
	staff := []employee.Employee{
		{ID: "emp-1", BasicSalary: 20000, Allowances: payrollcalc.Allowances{HRA: 5000}},
		{ID: "emp-2", BasicSalary: 30000},
	}

	t.Run("one job per employee", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		lister := schedulerMock.NewMockEmployeeLister(ctrl)
		queue := schedulerMock.NewMockJobQueue(ctrl)
		s := scheduler.New(lister, queue, zap.NewNop()).WithClock(fixedClock)

		lister.EXPECT().ListAll(gomock.Any()).Return(staff, nil)
		gomock.InOrder(
			queue.EXPECT().Push(gomock.Any(), jobqueue.PayrollJob{
				EmployeeID: "emp-1",
				Period:     "2025-03",
				PayrollInput: payrollcalc.Input{
					Basic:                  20000,
					Allowances:             payrollcalc.Allowances{HRA: 5000},
					ProfessionalTaxCountry: "IN",
				},
				RequestedBy: "cron",
			}).Return(nil),
			queue.EXPECT().Push(gomock.Any(), gomock.Any()).Return(nil),
		)

		n, err := s.QueueMonthly(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("a failed push does not stop the run", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		lister := schedulerMock.NewMockEmployeeLister(ctrl)
		queue := schedulerMock.NewMockJobQueue(ctrl)
		s := scheduler.New(lister, queue, zap.NewNop()).WithClock(fixedClock)

		lister.EXPECT().ListAll(gomock.Any()).Return(staff, nil)
		queue.EXPECT().Push(gomock.Any(), gomock.Any()).
			Return(apperror.Transient(errors.New("refused"), "job queue unavailable"))
		queue.EXPECT().Push(gomock.Any(), gomock.Any()).Return(nil)

		n, err := s.QueueMonthly(ctx)

		assert.Equal(t, 1, n)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "emp-1")
		assert.True(t, apperror.IsTransient(err))
	})

	t.Run("listing fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		lister := schedulerMock.NewMockEmployeeLister(ctrl)
		queue := schedulerMock.NewMockJobQueue(ctrl)
		s := scheduler.New(lister, queue, zap.NewNop())

		lister.EXPECT().ListAll(gomock.Any()).Return(nil, errors.New("store down"))

		_, err := s.QueueMonthly(ctx)

		assert.EqualError(t, err, "store down")
	})
}

func TestScheduler_Start(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := scheduler.New(schedulerMock.NewMockEmployeeLister(ctrl), schedulerMock.NewMockJobQueue(ctrl), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("default schedule", func(t *testing.T) {
		assert.NoError(t, s.Start(ctx, "0 1 * * *"))
	})

	t.Run("invalid schedule", func(t *testing.T) {
		err := s.Start(ctx, "every day at one")
		assert.ErrorContains(t, err, "invalid CRON_SCHEDULE")
	})
}
