package payroll

import (
	"go-payroll/internal/jobqueue"
	"go-payroll/internal/payrollcalc"
)

type GeneratePayrollRequest struct {
	EmployeeID             string  `json:"employeeId" binding:"required"`
	Period                 string  `json:"period"`
	Bonus                  float64 `json:"bonus"`
	CustomDeductions       float64 `json:"customDeductions"`
	ProfessionalTaxCountry string  `json:"professionalTaxCountry"`
}

type GeneratePayrollResponse struct {
	Message string              `json:"message"`
	Job     jobqueue.PayrollJob `json:"job"`
}

// UpdatePayrollRequest is a merge patch; employee and period are fixed
// once generated.
type UpdatePayrollRequest struct {
	Status          *string                `json:"status" binding:"omitempty,oneof=generated approved paid cancelled"`
	GrossPay        *float64               `json:"grossPay" binding:"omitempty,gte=0"`
	TotalDeductions *float64               `json:"totalDeductions" binding:"omitempty,gte=0"`
	NetPay          *float64               `json:"netPay" binding:"omitempty,gte=0"`
	Breakdown       *payrollcalc.Breakdown `json:"breakdown"`
}

type ListQuery struct {
	EmployeeID string `form:"employeeId"`
	Period     string `form:"period"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

type PayrollResponse struct {
	ID               string                `json:"id"`
	Employee         string                `json:"employee"`
	EmployeeSnapshot EmployeeSnapshot      `json:"employeeSnapshot"`
	Period           string                `json:"period"`
	GrossPay         float64               `json:"grossPay"`
	TotalDeductions  float64               `json:"totalDeductions"`
	NetPay           float64               `json:"netPay"`
	Breakdown        payrollcalc.Breakdown `json:"breakdown"`
	Status           string                `json:"status"`
	GeneratedAt      string                `json:"generatedAt"`
	UpdatedAt        string                `json:"updatedAt,omitempty"`
}

type ListMeta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type ListResponse struct {
	Data []PayrollResponse `json:"data"`
	Meta ListMeta          `json:"meta"`
}

type PayslipResponse struct {
	Employee        EmployeeSnapshot      `json:"employee"`
	Period          string                `json:"period"`
	GrossPay        float64               `json:"grossPay"`
	TotalDeductions float64               `json:"totalDeductions"`
	NetPay          float64               `json:"netPay"`
	Breakdown       payrollcalc.Breakdown `json:"breakdown"`
}
