package rbac_test

import (
	"errors"
	"testing"

	"go-payroll/internal/domain"
	"go-payroll/internal/rbac"
	"go-payroll/internal/rbac/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServiceTest(t *testing.T) rbac.Service {
	t.Helper()
	enforcer, err := infra.NewEnforcer()
	require.NoError(t, err)

	svc, err := rbac.NewService(rbac.NewRepository(), enforcer)
	require.NoError(t, err)
	return svc
}

func TestRBACService_Enforce(t *testing.T) {
	svc := setupServiceTest(t)

	cases := []struct {
		role, resource, action string
		allowed                bool
	}{
		{domain.RoleEmployee, "employee", "read", true},
		{domain.RoleEmployee, "payroll", "payslip", true},
		{domain.RoleEmployee, "employee", "list", false},
		{domain.RoleEmployee, "payroll", "generate", false},

		{domain.RoleHR, "employee", "create", true},
		{domain.RoleHR, "employee", "read", true},
		{domain.RoleHR, "payroll", "generate", true},
		{domain.RoleHR, "payroll", "payslip", true},
		{domain.RoleHR, "employee", "delete", false},

		{domain.RoleAdmin, "employee", "delete", true},
		{domain.RoleAdmin, "payroll", "calc", true},
		{domain.RoleAdmin, "employee", "read", true},

		{"", "employee", "read", false},
		{"guest", "employee", "read", false},
	}
	for _, tc := range cases {
		t.Run(tc.role+" "+tc.resource+":"+tc.action, func(t *testing.T) {
			allowed, err := svc.Enforce(rbac.EnforceRequest{Role: tc.role, Resource: tc.resource, Action: tc.action})
			require.NoError(t, err)
			assert.Equal(t, tc.allowed, allowed)
		})
	}
}

func TestRBACService_Permissions(t *testing.T) {
	svc := setupServiceTest(t)

	perms, err := svc.Permissions(domain.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, []rbac.PermissionResponse{
		{Resource: "employee", Action: "read"},
		{Resource: "payroll", Action: "payslip"},
	}, perms)

	admin, err := svc.Permissions(domain.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, admin, len(rbac.DefaultRolePermissions))
}

type failingRepo struct{}

func (failingRepo) GetRolePermissions() ([]rbac.RolePermissionRow, error) { return nil, nil }
func (failingRepo) GetRoleInheritance() ([]rbac.RoleInheritanceRow, error) {
	return nil, errors.New("policy store down")
}

func TestRBACService_LoadFailure(t *testing.T) {
	enforcer, err := infra.NewEnforcer()
	require.NoError(t, err)

	_, err = rbac.NewService(failingRepo{}, enforcer)
	assert.EqualError(t, err, "policy store down")
}
