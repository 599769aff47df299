package employee

import (
	"context"
	"strings"
	"time"

	employeeerrors "go-payroll/internal/employee/errors"
	"go-payroll/internal/payrollcalc"
	"go-payroll/internal/shared/cache"
	"go-payroll/internal/shared/contextutil"
	"go-payroll/internal/shared/counter"
	"go-payroll/internal/store"

	"go.uber.org/zap"
)

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context, q ListQuery, requestURI string) (ListResponse, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo    Repository
	counter counter.Repository
	cache   *cache.Cache
	logger  *zap.Logger
}

// NewService wires the employee use cases. cache may be nil, in which case
// list calls always hit the store.
func NewService(repo Repository, counter counter.Repository, c *cache.Cache, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{repo: repo, counter: counter, cache: c, logger: l}
}

func (s *service) Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)
	l.Debug("create employee requested", zap.String("email", req.Email))

	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.Email) == "" {
		return EmployeeResponse{}, employeeerrors.ErrMissingRequiredFields
	}
	if req.BasicSalary <= 0 {
		return EmployeeResponse{}, employeeerrors.ErrInvalidBasicSalary
	}

	if strings.TrimSpace(req.EmployeeID) == "" {
		next, err := s.counter.GetNextValue(ctx, counter.EmployeeNumber)
		if err != nil {
			l.Error("create employee generate number failed", zap.Error(err))
			return EmployeeResponse{}, err
		}
		req.EmployeeID = counter.FormatEmployeeNumber(next)
	}

	empl := &Employee{
		EmployeeID:  strings.TrimSpace(req.EmployeeID),
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       strings.TrimSpace(req.Email),
		Phone:       req.Phone,
		Department:  req.Department,
		Designation: req.Designation,
		BasicSalary: req.BasicSalary,
	}
	if req.Allowances != nil {
		empl.Allowances = *req.Allowances
	}

	if err := s.repo.Create(ctx, empl); err != nil {
		l.Warn("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidate(ctx)
	l.Info("create employee success",
		zap.String("id", empl.ID),
		zap.String("employee_id", empl.EmployeeID),
	)
	return mapToResponse(*empl), nil
}

func (s *service) GetAll(ctx context.Context, q ListQuery, requestURI string) (ListResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = store.DefaultLimit
	}
	q.Limit = min(q.Limit, store.MaxLimit)

	load := func(ctx context.Context) (ListResponse, error) {
		items, total, err := s.repo.List(ctx, Filter{
			Q:           q.Q,
			Department:  q.Department,
			Designation: q.Designation,
		}, q.Page, q.Limit)
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

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return EmployeeResponse{}, err
	}
	return mapToResponse(*empl), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	if req.BasicSalary != nil && *req.BasicSalary <= 0 {
		return EmployeeResponse{}, employeeerrors.ErrInvalidBasicSalary
	}

	patch := store.Record{}
	setString := func(field string, v *string) {
		if v != nil {
			patch[field] = strings.TrimSpace(*v)
		}
	}
	setString("employeeId", req.EmployeeID)
	setString("firstName", req.FirstName)
	setString("lastName", req.LastName)
	setString("email", req.Email)
	setString("phone", req.Phone)
	setString("department", req.Department)
	setString("designation", req.Designation)
	if req.BasicSalary != nil {
		patch["basicSalary"] = *req.BasicSalary
	}
	if req.Allowances != nil {
		patch["allowances"] = allowancesRecord(*req.Allowances)
	}

	empl, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		l.Warn("update employee failed", zap.String("id", id), zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidate(ctx)
	l.Info("update employee success", zap.String("id", id))
	return mapToResponse(*empl), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	l := contextutil.GetLogger(ctx, s.logger)

	if err := s.repo.Delete(ctx, id); err != nil {
		l.Warn("delete employee failed", zap.String("id", id), zap.Error(err))
		return err
	}

	s.invalidate(ctx)
	l.Info("delete employee success", zap.String("id", id))
	return nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, CachePrefix)
	}
}

func allowancesRecord(a payrollcalc.Allowances) map[string]any {
	return map[string]any{
		"hra":        a.HRA,
		"conveyance": a.Conveyance,
		"special":    a.Special,
	}
}

func mapToResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:          e.ID,
		EmployeeID:  e.EmployeeID,
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		Email:       e.Email,
		Phone:       e.Phone,
		Department:  e.Department,
		Designation: e.Designation,
		BasicSalary: e.BasicSalary,
		Allowances:  e.Allowances,
		CreatedAt:   formatTime(e.CreatedAt),
		UpdatedAt:   formatTime(e.UpdatedAt),
	}
}

func mapToListResponse(items []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(items))
	for i, e := range items {
		res[i] = mapToResponse(e)
	}
	return res
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(store.TimeLayout)
}
