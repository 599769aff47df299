package middleware

import (
	"context"
	"errors"
	"strings"

	autherrors "go-payroll/internal/auth/errors"
	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/shared/contextutil"
	"go-payroll/internal/shared/token"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Identity is the authenticated account attached to a request. It never
// carries the password hash.
type Identity struct {
	ID    string
	Name  string
	Email string
	Role  string
}

type IdentityLoader interface {
	LoadIdentity(ctx context.Context, userID string) (Identity, error)
}

type IdentityLoaderFunc func(ctx context.Context, userID string) (Identity, error)

func (f IdentityLoaderFunc) LoadIdentity(ctx context.Context, userID string) (Identity, error) {
	return f(ctx, userID)
}

type TokenParser interface {
	Parse(raw string) (token.Claims, error)
}

// Authenticator verifies the bearer token (or access_token cookie) and
// loads the account it names. A token for a deleted account is rejected.
type Authenticator struct {
	tokens TokenParser
	users  IdentityLoader
	logger *zap.Logger
}

func NewAuthenticator(tokens TokenParser, users IdentityLoader, logger ...*zap.Logger) *Authenticator {
	l := zap.L().Named("middleware.auth")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("middleware.auth")
	}
	return &Authenticator{tokens: tokens, users: users, logger: l}
}

func (a *Authenticator) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			raw = ""
		}
		if raw == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				raw = cookie
			}
		}
		if raw == "" {
			abortWithError(c, autherrors.ErrTokenNotFound)
			return
		}

		claims, err := a.tokens.Parse(raw)
		if err != nil {
			if errors.Is(err, token.ErrExpired) {
				abortWithError(c, autherrors.ErrTokenExpired)
				return
			}
			abortWithError(c, autherrors.ErrInvalidToken)
			return
		}

		id, err := a.users.LoadIdentity(c.Request.Context(), claims.UserID)
		if err != nil {
			if apperror.IsTransient(err) {
				a.logger.Error("identity lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
				abortWithError(c, err)
				return
			}
			abortWithError(c, autherrors.ErrUserNotFound)
			return
		}

		c.Set("user_id", id.ID)
		c.Set("role", id.Role)
		c.Set("email", id.Email)
		c.Set("identity", id)

		ctx := contextutil.WithUserID(c.Request.Context(), id.ID)
		ctx = contextutil.WithRole(ctx, id.Role)
		ctx = contextutil.WithLogger(ctx, contextutil.GetLogger(ctx, a.logger).With(
			zap.String("user_id", id.ID),
			zap.String("role", id.Role),
		))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// CurrentIdentity returns the identity set by Authenticator.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get("identity")
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// RequireRoles admits only the listed roles, compared literally.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, r := range allowedRoles {
			if role == r {
				c.Next()
				return
			}
		}
		abortWithError(c, autherrors.ErrForbidden)
	}
}
