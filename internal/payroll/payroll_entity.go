package payroll

import (
	"time"

	"go-payroll/internal/payrollcalc"
	"go-payroll/internal/store"
)

const (
	EntityName = "payroll"
	SetKey     = "payroll:set"

	// CachePrefix namespaces cached list responses.
	CachePrefix = "payroll"
)

const (
	StatusGenerated = "generated"
	StatusApproved  = "approved"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// EmployeeSnapshot freezes the employee details a payroll was computed
// for, so later edits to the employee do not rewrite old payslips.
type EmployeeSnapshot struct {
	EmployeeID  string `json:"employeeId"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Department  string `json:"department"`
}

type Payroll struct {
	ID               string                `json:"id"`
	Employee         string                `json:"employee"`
	EmployeeSnapshot EmployeeSnapshot      `json:"employeeSnapshot"`
	Period           string                `json:"period"`
	GrossPay         float64               `json:"grossPay"`
	TotalDeductions  float64               `json:"totalDeductions"`
	NetPay           float64               `json:"netPay"`
	Breakdown        payrollcalc.Breakdown `json:"breakdown"`
	Status           string                `json:"status"`
	GeneratedAt      time.Time             `json:"generatedAt"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

// Entity: payroll:{id} hashes, one record per (employee, period) through
// payroll:employee:{employee}:period:{period}, and payroll:period:{period}
// sets of ids.
func Entity() *store.Entity {
	return store.NewEntity(EntityName, SetKey).
		Unique("employee", "period").
		GroupBy("period").
		WithSchema(store.Schema{
			"employee":         store.KindString,
			"period":           store.KindString,
			"status":           store.KindString,
			"generatedAt":      store.KindString,
			"employeeSnapshot": store.KindJSON,
			"breakdown":        store.KindJSON,
			"grossPay":         store.KindNumber,
			"totalDeductions":  store.KindNumber,
			"netPay":           store.KindNumber,
		}).
		WithTimestamps()
}
