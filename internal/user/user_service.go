package user

import (
	"context"
	"strings"

	"go-payroll/internal/domain"
	"go-payroll/internal/shared/contextutil"
	"go-payroll/internal/store"
	usererrors "go-payroll/internal/user/errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=user_service.go -destination=mock/user_service_mock.go -package=mock

type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (UserResponse, error)
	GetByID(ctx context.Context, id string) (UserResponse, error)
	GetAll(ctx context.Context, page, limit int) ([]UserResponse, int, error)
}

type service struct {
	repo   Repository
	cost   int
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &service{repo: repo, cost: bcrypt.DefaultCost, logger: l}
}

func (s *service) Create(ctx context.Context, req CreateUserRequest) (UserResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Name == "" || req.Password == "" {
		return UserResponse{}, usererrors.ErrMissingRequiredFields
	}
	if req.Role == "" {
		req.Role = domain.RoleEmployee
	}
	if !domain.ValidRole(req.Role) {
		return UserResponse{}, usererrors.ErrInvalidRole
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		l.Error("failed to hash password", zap.Error(err))
		return UserResponse{}, err
	}

	u := &User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Role:         req.Role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return UserResponse{}, err
	}

	l.Info("user created", zap.String("user_id", u.ID), zap.String("role", u.Role))
	return MapToResponse(*u), nil
}

func (s *service) GetByID(ctx context.Context, id string) (UserResponse, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}
	return MapToResponse(*u), nil
}

func (s *service) GetAll(ctx context.Context, page, limit int) ([]UserResponse, int, error) {
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = MapToResponse(u)
	}
	return resp, total, nil
}

func MapToResponse(u User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC().Format(store.TimeLayout),
	}
}
