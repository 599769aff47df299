package payroll

import (
	"context"
	"fmt"
	"time"

	payrollerrors "go-payroll/internal/payroll/errors"
	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/store"
)

type Filter struct {
	EmployeeID string
	Period     string
}

//go:generate mockgen -source=payroll_repo.go -destination=mock/payroll_repo_mock.go -package=mock
type Repository interface {
	// Upsert writes the payroll for (Employee, Period), reusing the existing
	// id when one was generated before. created is false on regeneration.
	Upsert(ctx context.Context, p *Payroll) (created bool, err error)
	FindByID(ctx context.Context, id string) (*Payroll, error)
	FindByEmployeePeriod(ctx context.Context, employeeID, period string) (*Payroll, error)
	Update(ctx context.Context, id string, patch store.Record) (*Payroll, error)
	List(ctx context.Context, f Filter, page, limit int) ([]Payroll, int, error)
}

type repository struct {
	store *store.Store
	now   func() time.Time
}

func NewRepository(s *store.Store) Repository {
	s.Register(Entity())
	return &repository{store: s, now: time.Now}
}

func (r *repository) Upsert(ctx context.Context, p *Payroll) (bool, error) {
	if p.GeneratedAt.IsZero() {
		p.GeneratedAt = r.now().UTC()
	}
	if p.Status == "" {
		p.Status = StatusGenerated
	}

	rec, err := store.FromStruct(p)
	if err != nil {
		return false, err
	}
	delete(rec, "id")
	delete(rec, "createdAt")
	delete(rec, "updatedAt")
	rec["generatedAt"] = p.GeneratedAt

	saved, created, err := r.store.Upsert(ctx, EntityName, rec)
	if err != nil {
		return false, err
	}
	if err := decodeInto(saved, p); err != nil {
		return false, err
	}
	return created, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Payroll, error) {
	rec, err := r.store.Get(ctx, EntityName, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return decode(rec)
}

func (r *repository) FindByEmployeePeriod(ctx context.Context, employeeID, period string) (*Payroll, error) {
	rec, err := r.store.FindByIndex(ctx, EntityName, store.Record{
		"employee": employeeID,
		"period":   period,
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return decode(rec)
}

func (r *repository) Update(ctx context.Context, id string, patch store.Record) (*Payroll, error) {
	rec, err := r.store.Update(ctx, EntityName, id, patch)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return decode(rec)
}

// List uses the period index when a period is given and scans the full set
// otherwise.
func (r *repository) List(ctx context.Context, f Filter, page, limit int) ([]Payroll, int, error) {
	var (
		p   store.Page
		err error
	)
	pred := store.FieldEquals("employee", f.EmployeeID)
	if f.Period != "" {
		p, err = r.store.ListGroup(ctx, EntityName, "period", f.Period, pred, page, limit)
	} else {
		p, err = r.store.List(ctx, EntityName, pred, page, limit)
	}
	if err != nil {
		return nil, 0, err
	}

	out := make([]Payroll, 0, len(p.Items))
	for _, rec := range p.Items {
		item, err := decode(rec)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *item)
	}
	return out, p.Total, nil
}

func mapNotFound(err error) error {
	if apperror.IsNotFound(err) {
		return payrollerrors.ErrPayrollNotFound
	}
	return err
}

func decode(rec store.Record) (*Payroll, error) {
	var p Payroll
	if err := decodeInto(rec, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeInto(rec store.Record, p *Payroll) error {
	if err := rec.Into(p); err != nil {
		return fmt.Errorf("payroll: decode %s: %w", rec.ID(), err)
	}
	return nil
}
