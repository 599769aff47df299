package user

import (
	"context"
	"fmt"
	"time"

	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/store"
	usererrors "go-payroll/internal/user/errors"
)

//go:generate mockgen -source=user_repo.go -destination=mock/user_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, page, limit int) ([]User, int, error)
}

type repository struct {
	store *store.Store
	now   func() time.Time
}

func NewRepository(s *store.Store) Repository {
	s.Register(Entity())
	return &repository{store: s, now: time.Now}
}

func (r *repository) Create(ctx context.Context, u *User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now().UTC()
	}
	rec, err := store.FromStruct(u)
	if err != nil {
		return err
	}
	if u.ID == "" {
		delete(rec, "id")
	}
	rec["createdAt"] = u.CreatedAt

	saved, err := r.store.Create(ctx, EntityName, rec)
	if err != nil {
		if apperror.IsConflict(err) {
			return usererrors.ErrUserAlreadyExists
		}
		return err
	}
	u.ID = saved.ID()
	return nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	rec, err := r.store.Get(ctx, EntityName, id)
	return decode(rec, err)
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	rec, err := r.store.FindByUnique(ctx, EntityName, "email", email)
	return decode(rec, err)
}

func (r *repository) List(ctx context.Context, page, limit int) ([]User, int, error) {
	p, err := r.store.List(ctx, EntityName, nil, page, limit)
	if err != nil {
		return nil, 0, err
	}
	users := make([]User, 0, len(p.Items))
	for _, rec := range p.Items {
		var u User
		if err := rec.Into(&u); err != nil {
			return nil, 0, fmt.Errorf("user: decode %s: %w", rec.ID(), err)
		}
		users = append(users, u)
	}
	return users, p.Total, nil
}

func decode(rec store.Record, err error) (*User, error) {
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, usererrors.ErrUserNotFound
		}
		return nil, err
	}
	var u User
	if err := rec.Into(&u); err != nil {
		return nil, fmt.Errorf("user: decode %s: %w", rec.ID(), err)
	}
	return &u, nil
}
