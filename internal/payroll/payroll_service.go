package payroll

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-payroll/internal/employee"
	"go-payroll/internal/jobqueue"
	payrollerrors "go-payroll/internal/payroll/errors"
	"go-payroll/internal/payrollcalc"
	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/shared/cache"
	"go-payroll/internal/shared/contextutil"
	"go-payroll/internal/store"

	"go.uber.org/zap"
)

//go:generate mockgen -source=payroll_service.go -destination=mock/payroll_service_mock.go -package=mock
type Service interface {
	Calculate(ctx context.Context, raw []byte) (payrollcalc.Result, error)
	Generate(ctx context.Context, requestedBy string, req GeneratePayrollRequest) (GeneratePayrollResponse, error)
	GetAll(ctx context.Context, q ListQuery, requestURI string) (ListResponse, error)
	GetByID(ctx context.Context, id string) (PayrollResponse, error)
	Update(ctx context.Context, id string, req UpdatePayrollRequest) (PayrollResponse, error)
	GetPayslip(ctx context.Context, id string) (PayslipResponse, error)
	RenderPayslipPDF(ctx context.Context, id string) (filename string, pdf []byte, err error)
	SaveGenerated(ctx context.Context, p *Payroll) (created bool, err error)
}

type EmployeeFinder interface {
	FindByID(ctx context.Context, id string) (*employee.Employee, error)
}

type JobQueue interface {
	Push(ctx context.Context, job jobqueue.PayrollJob) error
}

type service struct {
	repo      Repository
	employees EmployeeFinder
	queue     JobQueue
	cache     *cache.Cache
	now       func() time.Time
	logger    *zap.Logger
}

// NewService wires the payroll use cases. cache may be nil.
func NewService(repo Repository, employees EmployeeFinder, queue JobQueue, c *cache.Cache, logger ...*zap.Logger) Service {
	l := zap.L().Named("payroll.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payroll.service")
	}
	return &service{
		repo:      repo,
		employees: employees,
		queue:     queue,
		cache:     c,
		now:       time.Now,
		logger:    l,
	}
}

func (s *service) Calculate(_ context.Context, raw []byte) (payrollcalc.Result, error) {
	in, err := payrollcalc.ParseInput(raw)
	if err != nil {
		return payrollcalc.Result{}, err
	}
	return payrollcalc.Calculate(in)
}

// Generate resolves the employee, captures their current pay as the job
// input and queues the job. The payroll itself is written by the worker.
func (s *service) Generate(ctx context.Context, requestedBy string, req GeneratePayrollRequest) (GeneratePayrollResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	if strings.TrimSpace(req.EmployeeID) == "" {
		return GeneratePayrollResponse{}, payrollerrors.ErrMissingEmployee
	}
	period := strings.TrimSpace(req.Period)
	if period == "" {
		period = jobqueue.CurrentPeriod(s.now())
	}
	if !jobqueue.ValidPeriod(period) {
		return GeneratePayrollResponse{}, payrollerrors.ErrInvalidPeriodFormat
	}

	emp, err := s.employees.FindByID(ctx, req.EmployeeID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return GeneratePayrollResponse{}, payrollerrors.ErrEmployeeNotFound
		}
		return GeneratePayrollResponse{}, err
	}

	country := req.ProfessionalTaxCountry
	if country == "" {
		country = payrollcalc.DefaultCountry
	}

	job := jobqueue.PayrollJob{
		EmployeeID: emp.ID,
		Period:     period,
		PayrollInput: payrollcalc.Input{
			Basic:                  emp.BasicSalary,
			Allowances:             emp.Allowances,
			Bonus:                  req.Bonus,
			CustomDeductions:       req.CustomDeductions,
			ProfessionalTaxCountry: country,
		},
		RequestedBy: requestedBy,
	}
	if err := s.queue.Push(ctx, job); err != nil {
		l.Error("queue payroll job failed", zap.String("employee", emp.ID), zap.Error(err))
		return GeneratePayrollResponse{}, err
	}

	l.Info("payroll job queued",
		zap.String("employee", emp.ID),
		zap.String("period", period),
		zap.String("requested_by", requestedBy),
	)
	return GeneratePayrollResponse{Message: "Payroll job queued", Job: job}, nil
}

func (s *service) GetAll(ctx context.Context, q ListQuery, requestURI string) (ListResponse, error) {
	if q.Period != "" && !jobqueue.ValidPeriod(q.Period) {
		return ListResponse{}, payrollerrors.ErrInvalidPeriodFormat
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = store.DefaultLimit
	}
	q.Limit = min(q.Limit, store.MaxLimit)

	load := func(ctx context.Context) (ListResponse, error) {
		items, total, err := s.repo.List(ctx, Filter{EmployeeID: q.EmployeeID, Period: q.Period}, q.Page, q.Limit)
		if err != nil {
			return ListResponse{}, err
		}
		return ListResponse{
			Data: mapToListResponse(items),
			Meta: ListMeta{Total: total, Page: q.Page, Limit: q.Limit},
		}, nil
	}

	if s.cache == nil {
		return load(ctx)
	}
	return cache.GetOrLoad(ctx, s.cache, CachePrefix, requestURI, load)
}

func (s *service) GetByID(ctx context.Context, id string) (PayrollResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return PayrollResponse{}, err
	}
	return mapToResponse(*p), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdatePayrollRequest) (PayrollResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	patch := store.Record{}
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return PayrollResponse{}, payrollerrors.ErrInvalidStatus
		}
		patch["status"] = *req.Status
	}
	if req.GrossPay != nil {
		patch["grossPay"] = *req.GrossPay
	}
	if req.TotalDeductions != nil {
		patch["totalDeductions"] = *req.TotalDeductions
	}
	if req.NetPay != nil {
		patch["netPay"] = *req.NetPay
	}
	if req.Breakdown != nil {
		b, err := store.FromStruct(req.Breakdown)
		if err != nil {
			return PayrollResponse{}, err
		}
		patch["breakdown"] = map[string]any(b)
	}

	p, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		l.Warn("update payroll failed", zap.String("id", id), zap.Error(err))
		return PayrollResponse{}, err
	}

	s.invalidate(ctx)
	l.Info("update payroll success", zap.String("id", id))
	return mapToResponse(*p), nil
}

func (s *service) GetPayslip(ctx context.Context, id string) (PayslipResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return PayslipResponse{}, err
	}
	return mapToPayslip(*p), nil
}

func (s *service) RenderPayslipPDF(ctx context.Context, id string) (string, []byte, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	pdf, err := buildSimplePayslipPDF(payslipLines(mapToPayslip(*p)))
	if err != nil {
		return "", nil, err
	}
	name := p.EmployeeSnapshot.EmployeeID
	if name == "" {
		name = p.Employee
	}
	return fmt.Sprintf("payslip-%s-%s.pdf", name, p.Period), pdf, nil
}

// SaveGenerated persists a payroll computed by the worker and drops cached
// payroll lists.
func (s *service) SaveGenerated(ctx context.Context, p *Payroll) (bool, error) {
	created, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return false, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, CachePrefix)
	}
}

func validStatus(v string) bool {
	switch v {
	case StatusGenerated, StatusApproved, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

func mapToResponse(p Payroll) PayrollResponse {
	return PayrollResponse{
		ID:               p.ID,
		Employee:         p.Employee,
		EmployeeSnapshot: p.EmployeeSnapshot,
		Period:           p.Period,
		GrossPay:         p.GrossPay,
		TotalDeductions:  p.TotalDeductions,
		NetPay:           p.NetPay,
		Breakdown:        p.Breakdown,
		Status:           p.Status,
		GeneratedAt:      formatTime(p.GeneratedAt),
		UpdatedAt:        formatTime(p.UpdatedAt),
	}
}

func mapToListResponse(items []Payroll) []PayrollResponse {
	res := make([]PayrollResponse, len(items))
	for i, p := range items {
		res[i] = mapToResponse(p)
	}
	return res
}

func mapToPayslip(p Payroll) PayslipResponse {
	return PayslipResponse{
		Employee:        p.EmployeeSnapshot,
		Period:          p.Period,
		GrossPay:        p.GrossPay,
		TotalDeductions: p.TotalDeductions,
		NetPay:          p.NetPay,
		Breakdown:       p.Breakdown,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(store.TimeLayout)
}
