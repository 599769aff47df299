package employee

import (
	"errors"
	"strings"

	employeeerrors "go-payroll/internal/employee/errors"
	"go-payroll/internal/shared/apperror"
)

// mapRepositoryError turns store errors into employee sentinels. Conflicts
// are told apart by the index named in the store message.
func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if apperror.IsNotFound(err) {
		return employeeerrors.ErrEmployeeNotFound
	}

	var appErr *apperror.AppError
	if apperror.IsConflict(err) && errors.As(err, &appErr) {
		switch {
		case strings.HasPrefix(appErr.Message, "employeeId"):
			return employeeerrors.ErrEmployeeNumberAlreadyExists
		case strings.HasPrefix(appErr.Message, "email"):
			return employeeerrors.ErrEmployeeAlreadyExists
		}
	}

	return err
}
