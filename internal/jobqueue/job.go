package jobqueue

import (
	"time"

	"go-payroll/internal/payrollcalc"
	"go-payroll/internal/shared/apperror"
)

const PeriodLayout = "2006-01"

// PayrollJob asks the worker to generate one employee's payroll for a
// period. PayrollInput is captured at submission time.
type PayrollJob struct {
	EmployeeID   string            `json:"employeeId"`
	Period       string            `json:"period"`
	PayrollInput payrollcalc.Input `json:"payrollInput"`
	RequestedBy  string            `json:"requestedBy"`
}

func (j PayrollJob) Validate() error {
	if j.EmployeeID == "" {
		return apperror.RequiredField("employeeId")
	}
	if !ValidPeriod(j.Period) {
		return apperror.InvalidField("period")
	}
	return nil
}

// ValidPeriod reports whether p is a YYYY-MM month.
func ValidPeriod(p string) bool {
	if len(p) != len(PeriodLayout) {
		return false
	}
	_, err := time.Parse(PeriodLayout, p)
	return err == nil
}

// CurrentPeriod formats t as a period in UTC.
func CurrentPeriod(t time.Time) string {
	return t.UTC().Format(PeriodLayout)
}
