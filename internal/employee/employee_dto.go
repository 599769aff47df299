package employee

import "go-payroll/internal/payrollcalc"

type CreateEmployeeRequest struct {
	EmployeeID  string                  `json:"employeeId"`
	FirstName   string                  `json:"firstName" binding:"required"`
	LastName    string                  `json:"lastName"`
	Email       string                  `json:"email" binding:"required,email"`
	Phone       string                  `json:"phone"`
	Department  string                  `json:"department"`
	Designation string                  `json:"designation"`
	BasicSalary float64                 `json:"basicSalary" binding:"required,gt=0"`
	Allowances  *payrollcalc.Allowances `json:"allowances"`
}

// UpdateEmployeeRequest is a partial update; nil fields are left alone.
type UpdateEmployeeRequest struct {
	EmployeeID  *string                 `json:"employeeId" binding:"omitempty,min=1"`
	FirstName   *string                 `json:"firstName" binding:"omitempty,min=1"`
	LastName    *string                 `json:"lastName"`
	Email       *string                 `json:"email" binding:"omitempty,email"`
	Phone       *string                 `json:"phone"`
	Department  *string                 `json:"department"`
	Designation *string                 `json:"designation"`
	BasicSalary *float64                `json:"basicSalary" binding:"omitempty,gt=0"`
	Allowances  *payrollcalc.Allowances `json:"allowances"`
}

type ListQuery struct {
	Q           string `form:"q"`
	Department  string `form:"department"`
	Designation string `form:"designation"`
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
}

type EmployeeResponse struct {
	ID          string                 `json:"id"`
	EmployeeID  string                 `json:"employeeId"`
	FirstName   string                 `json:"firstName"`
	LastName    string                 `json:"lastName"`
	Email       string                 `json:"email"`
	Phone       string                 `json:"phone,omitempty"`
	Department  string                 `json:"department,omitempty"`
	Designation string                 `json:"designation,omitempty"`
	BasicSalary float64                `json:"basicSalary"`
	Allowances  payrollcalc.Allowances `json:"allowances"`
	CreatedAt   string                 `json:"createdAt"`
	UpdatedAt   string                 `json:"updatedAt"`
}

type ListMeta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type ListResponse struct {
	Data []EmployeeResponse `json:"data"`
	Meta ListMeta           `json:"meta"`
}
