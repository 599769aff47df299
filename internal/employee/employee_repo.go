package employee

import (
	"context"
	"fmt"

	"go-payroll/internal/store"
)

// Filter narrows List. Q is a case-insensitive regex over first name, last
// name, email and employeeId; Department and Designation match exactly.
type Filter struct {
	Q           string
	Department  string
	Designation string
}

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, e *Employee) error
	FindByID(ctx context.Context, id string) (*Employee, error)
	Update(ctx context.Context, id string, patch store.Record) (*Employee, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f Filter, page, limit int) ([]Employee, int, error)
	ListAll(ctx context.Context) ([]Employee, error)
}

type repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) Repository {
	s.Register(Entity())
	return &repository{store: s}
}

func (r *repository) Create(ctx context.Context, e *Employee) error {
	rec, err := store.FromStruct(e)
	if err != nil {
		return err
	}
	if e.ID == "" {
		delete(rec, "id")
	}
	delete(rec, "createdAt")
	delete(rec, "updatedAt")

	saved, err := r.store.Create(ctx, EntityName, rec)
	if err != nil {
		return mapRepositoryError(err)
	}
	return decodeInto(saved, e)
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	rec, err := r.store.Get(ctx, EntityName, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	var e Employee
	if err := decodeInto(rec, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) Update(ctx context.Context, id string, patch store.Record) (*Employee, error) {
	rec, err := r.store.Update(ctx, EntityName, id, patch)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	var e Employee
	if err := decodeInto(rec, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return mapRepositoryError(r.store.Delete(ctx, EntityName, id))
}

func (r *repository) List(ctx context.Context, f Filter, page, limit int) ([]Employee, int, error) {
	search, err := store.MatchAny(f.Q, "firstName", "lastName", "email", "employeeId")
	if err != nil {
		return nil, 0, err
	}
	pred := store.All(
		search,
		store.FieldEquals("department", f.Department),
		store.FieldEquals("designation", f.Designation),
	)

	p, err := r.store.List(ctx, EntityName, pred, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out, err := decodeAll(p.Items)
	if err != nil {
		return nil, 0, err
	}
	return out, p.Total, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Employee, error) {
	items, err := r.store.Collect(ctx, EntityName, nil)
	if err != nil {
		return nil, err
	}
	return decodeAll(items)
}

func decodeAll(items []store.Record) ([]Employee, error) {
	out := make([]Employee, 0, len(items))
	for _, rec := range items {
		var e Employee
		if err := decodeInto(rec, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeInto(rec store.Record, e *Employee) error {
	if err := rec.Into(e); err != nil {
		return fmt.Errorf("employee: decode %s: %w", rec.ID(), err)
	}
	return nil
}
