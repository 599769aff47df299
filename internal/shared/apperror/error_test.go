package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"go-payroll/internal/shared/apperror"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

func TestToHTTP(t *testing.T) {
	t.Run("app error keeps status and code", func(t *testing.T) {
		err := fmt.Errorf("create employee: %w", apperror.Conflict("email already exists"))

		httpErr := apperror.ToHTTP(err)

		assert.Equal(t, http.StatusConflict, httpErr.Status)
		assert.Equal(t, apperror.CodeConflict, httpErr.Code)
		assert.Equal(t, "email already exists", httpErr.Message)
	})

	t.Run("transient error hides cause", func(t *testing.T) {
		err := apperror.Transient(errors.New("dial tcp: refused"), "backing store unavailable")

		httpErr := apperror.ToHTTP(err)

		assert.Equal(t, http.StatusServiceUnavailable, httpErr.Status)
		assert.Nil(t, httpErr.Details)
	})

	t.Run("unknown error is internal", func(t *testing.T) {
		httpErr := apperror.ToHTTP(errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
		assert.Equal(t, apperror.CodeInternalError, httpErr.Code)
	})
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, apperror.IsValidation(apperror.Validation("bad")))
	assert.True(t, apperror.IsNotFound(fmt.Errorf("wrap: %w", apperror.NotFound("missing"))))
	assert.True(t, apperror.IsTransient(apperror.Transient(errors.New("x"), "down")))
	assert.True(t, apperror.IsFatalConfig(apperror.FatalConfig("REDIS_URL not set")))
	assert.True(t, apperror.IsForbidden(apperror.Forbidden("admins only")))
	assert.False(t, apperror.IsConflict(errors.New("plain")))

	assert.Equal(t, http.StatusUnauthorized, apperror.ErrUnauthorized.HTTPStatus)
	assert.Equal(t, http.StatusForbidden, apperror.Forbidden("x").HTTPStatus)
}

func TestSentinelMatchesAfterWrap(t *testing.T) {
	sentinel := apperror.NotFound("Employee not found")
	wrapped := apperror.Wrap(errors.New("redis: nil"), sentinel.Code, sentinel.Message, sentinel.HTTPStatus)

	assert.ErrorIs(t, wrapped, sentinel)
}

func TestMapValidationError(t *testing.T) {
	apperror.Init()

	type req struct {
		BasicSalary float64 `json:"basicSalary" binding:"required"`
		Email       string  `json:"email" binding:"omitempty,email"`
	}

	t.Run("required camelCase field", func(t *testing.T) {
		err := apperror.MapValidationError(binding.Validator.ValidateStruct(req{}))

		assert.True(t, apperror.IsValidation(err))
		assert.EqualError(t, err, "Basic Salary is required")
	})

	t.Run("other tags are invalid", func(t *testing.T) {
		err := apperror.MapValidationError(binding.Validator.ValidateStruct(req{BasicSalary: 1, Email: "nope"}))

		assert.EqualError(t, err, "Email is invalid")
	})

	t.Run("query fields use the form name", func(t *testing.T) {
		type query struct {
			EmployeeID string `form:"employeeId" binding:"required"`
		}
		err := apperror.MapValidationError(binding.Validator.ValidateStruct(query{}))

		assert.EqualError(t, err, "Employee Id is required")
	})

	t.Run("bounds and enums", func(t *testing.T) {
		type patch struct {
			Status string  `json:"status" binding:"omitempty,oneof=generated approved paid"`
			NetPay float64 `json:"netPay" binding:"gte=0"`
			Basic  float64 `json:"basic" binding:"gt=0"`
		}

		err := apperror.MapValidationError(binding.Validator.ValidateStruct(patch{Status: "draft", Basic: 1}))
		assert.EqualError(t, err, "Status must be one of: generated, approved, paid")

		err = apperror.MapValidationError(binding.Validator.ValidateStruct(patch{NetPay: -1, Basic: 1}))
		assert.EqualError(t, err, "Net Pay must be at least 0")

		err = apperror.MapValidationError(binding.Validator.ValidateStruct(patch{}))
		assert.EqualError(t, err, "Basic must be greater than 0")
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("non validator error", func(t *testing.T) {
		err := apperror.MapValidationError(errors.New("unexpected EOF"))

		httpErr := apperror.ToHTTP(err)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
		assert.Equal(t, "Invalid input", httpErr.Message)
	})
}
