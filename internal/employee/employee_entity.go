package employee

import (
	"strings"
	"time"

	"go-payroll/internal/payrollcalc"
	"go-payroll/internal/store"
)

const (
	EntityName = "employee"
	SetKey     = "employees:set"

	// CachePrefix namespaces cached list responses.
	CachePrefix = "employees"
)

type Employee struct {
	ID          string                 `json:"id"`
	EmployeeID  string                 `json:"employeeId"`
	FirstName   string                 `json:"firstName"`
	LastName    string                 `json:"lastName"`
	Email       string                 `json:"email"`
	Phone       string                 `json:"phone"`
	Department  string                 `json:"department"`
	Designation string                 `json:"designation"`
	BasicSalary float64                `json:"basicSalary"`
	Allowances  payrollcalc.Allowances `json:"allowances"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Entity: employee:{id} hashes, unique employeeId and email indexes.
// Business keys and contact fields are declared as strings so values such
// as employeeId "1001" or phone "0123" keep their text form.
func Entity() *store.Entity {
	return store.NewEntity(EntityName, SetKey).
		Unique("employeeId").
		Unique("email").
		WithSchema(store.Schema{
			"employeeId":  store.KindString,
			"firstName":   store.KindString,
			"lastName":    store.KindString,
			"email":       store.KindString,
			"phone":       store.KindString,
			"department":  store.KindString,
			"designation": store.KindString,
			"basicSalary": store.KindNumber,
			"allowances":  store.KindJSON,
		}).
		WithTimestamps()
}
