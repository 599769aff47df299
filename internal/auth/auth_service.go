package auth

import (
	"context"
	"errors"

	autherrors "go-payroll/internal/auth/errors"
	"go-payroll/internal/domain"
	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/shared/contextutil"
	"go-payroll/internal/user"
	usererrors "go-payroll/internal/user/errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (AuthResponse, error)
	Login(ctx context.Context, email, password string) (AuthResponse, error)
	GetMe(ctx context.Context, userID string) (user.UserResponse, error)
}

type TokenIssuer interface {
	Issue(userID, role, email string) (string, error)
}

type service struct {
	users  user.Service
	repo   user.Repository
	tokens TokenIssuer
	logger *zap.Logger
}

func NewService(users user.Service, repo user.Repository, tokens TokenIssuer, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{users: users, repo: repo, tokens: tokens, logger: l}
}

// Register always creates an employee account; elevated roles are granted
// through the admin user endpoints.
func (s *service) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	created, err := s.users.Create(ctx, user.CreateUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.RoleEmployee,
	})
	if err != nil {
		if errors.Is(err, usererrors.ErrUserAlreadyExists) {
			return AuthResponse{}, autherrors.ErrEmailAlreadyRegistered
		}
		return AuthResponse{}, err
	}

	tok, err := s.tokens.Issue(created.ID, created.Role, created.Email)
	if err != nil {
		return AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}
	return AuthResponse{Token: tok, User: created}, nil
}

func (s *service) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsTransient(err) {
			return AuthResponse{}, err
		}
		return AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		l.Info("login rejected", zap.String("user_id", u.ID))
		return AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(u.ID, u.Role, u.Email)
	if err != nil {
		l.Error("failed to sign token", zap.Error(err))
		return AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}

	return AuthResponse{Token: tok, User: user.MapToResponse(*u)}, nil
}

func (s *service) GetMe(ctx context.Context, userID string) (user.UserResponse, error) {
	res, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, usererrors.ErrUserNotFound) {
			return user.UserResponse{}, autherrors.ErrUserNotFound
		}
		return user.UserResponse{}, err
	}
	return res, nil
}
