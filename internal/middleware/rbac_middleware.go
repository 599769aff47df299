package middleware

import (
	"net/http"

	autherrors "go-payroll/internal/auth/errors"
	"go-payroll/internal/domain"
	"go-payroll/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

// RBACService is satisfied by anything that can answer a role/resource/action
// question.
type RBACService interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			abortWithError(c, apperror.ErrUnauthorized)
			return
		}

		allowed, err := service.Enforce(domain.EnforceRequest{
			Role:     role,
			Resource: resource,
			Action:   action,
		})
		if err != nil {
			abortWithError(c, apperror.Wrap(err, apperror.CodeInternalError, "authorization check failed", http.StatusInternalServerError))
			return
		}

		if !allowed {
			abortWithError(c, autherrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
