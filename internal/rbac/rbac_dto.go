package rbac

import "go-payroll/internal/domain"

type (
	EnforceRequest     = domain.EnforceRequest
	EnforceResponse    = domain.EnforceResponse
	PermissionResponse = domain.PermissionResponse
)
