package rbac

import "go-payroll/internal/domain"

type RolePermissionRow struct {
	Role     string
	Resource string
	Action   string
}

// RoleInheritanceRow lets Role do everything Inherits can.
type RoleInheritanceRow struct {
	Role     string
	Inherits string
}

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	GetRolePermissions() ([]RolePermissionRow, error)
	GetRoleInheritance() ([]RoleInheritanceRow, error)
}

type staticRepository struct {
	perms    []RolePermissionRow
	inherits []RoleInheritanceRow
}

func NewStaticRepository(perms []RolePermissionRow, inherits []RoleInheritanceRow) Repository {
	return &staticRepository{perms: perms, inherits: inherits}
}

// NewRepository serves the built-in admin > hr > employee policy.
func NewRepository() Repository {
	return NewStaticRepository(DefaultRolePermissions, DefaultRoleInheritance)
}

func (r *staticRepository) GetRolePermissions() ([]RolePermissionRow, error) {
	return append([]RolePermissionRow(nil), r.perms...), nil
}

func (r *staticRepository) GetRoleInheritance() ([]RoleInheritanceRow, error) {
	return append([]RoleInheritanceRow(nil), r.inherits...), nil
}

var DefaultRoleInheritance = []RoleInheritanceRow{
	{Role: domain.RoleAdmin, Inherits: domain.RoleHR},
	{Role: domain.RoleHR, Inherits: domain.RoleEmployee},
}

var DefaultRolePermissions = []RolePermissionRow{
	{domain.RoleEmployee, "employee", "read"},
	{domain.RoleEmployee, "payroll", "payslip"},

	{domain.RoleHR, "employee", "list"},
	{domain.RoleHR, "employee", "create"},
	{domain.RoleHR, "employee", "update"},
	{domain.RoleHR, "payroll", "calc"},
	{domain.RoleHR, "payroll", "generate"},
	{domain.RoleHR, "payroll", "list"},
	{domain.RoleHR, "payroll", "read"},
	{domain.RoleHR, "payroll", "update"},

	{domain.RoleAdmin, "employee", "delete"},
	{domain.RoleAdmin, "user", "list"},
	{domain.RoleAdmin, "user", "create"},
	{domain.RoleAdmin, "user", "read"},
}
