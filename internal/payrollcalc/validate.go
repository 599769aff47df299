package payrollcalc

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrInvalidBasic            = apperror.New(apperror.CodeInvalidInput, "Invalid basic salary", http.StatusBadRequest)
	ErrInvalidAllowances       = apperror.New(apperror.CodeInvalidInput, "Invalid allowances", http.StatusBadRequest)
	ErrInvalidBonus            = apperror.New(apperror.CodeInvalidInput, "Invalid bonus", http.StatusBadRequest)
	ErrInvalidCustomDeductions = apperror.New(apperror.CodeInvalidInput, "Invalid custom deductions", http.StatusBadRequest)
	ErrInvalidCountry          = apperror.New(apperror.CodeInvalidInput, "Invalid professional tax country", http.StatusBadRequest)
)

func Validate(in Input) error {
	if !finite(in.Basic) || in.Basic <= 0 {
		return ErrInvalidBasic
	}
	a := in.Allowances
	if !finite(a.HRA) || !finite(a.Conveyance) || !finite(a.Special) {
		return ErrInvalidAllowances
	}
	if !finite(in.Bonus) {
		return ErrInvalidBonus
	}
	if !finite(in.CustomDeductions) {
		return ErrInvalidCustomDeductions
	}
	return nil
}

// ParseInput decodes a JSON payroll input. Fields of the wrong JSON type
// fail with the same errors Validate returns; absent or null optional
// fields default to zero and the country to DefaultCountry.
func ParseInput(raw []byte) (Input, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Input{}, apperror.Wrap(err, apperror.CodeInvalidInput, "invalid payroll input", http.StatusBadRequest)
	}

	var in Input
	var ok bool

	if in.Basic, ok = number(fields["basic"]); !ok || isNull(fields["basic"]) {
		return Input{}, ErrInvalidBasic
	}
	if in.Bonus, ok = number(fields["bonus"]); !ok {
		return Input{}, ErrInvalidBonus
	}
	if in.CustomDeductions, ok = number(fields["customDeductions"]); !ok {
		return Input{}, ErrInvalidCustomDeductions
	}

	if a := fields["allowances"]; !isNull(a) {
		var parts map[string]json.RawMessage
		if err := json.Unmarshal(a, &parts); err != nil {
			return Input{}, ErrInvalidAllowances
		}
		for key, dst := range map[string]*float64{
			"hra":        &in.Allowances.HRA,
			"conveyance": &in.Allowances.Conveyance,
			"special":    &in.Allowances.Special,
		} {
			if *dst, ok = number(parts[key]); !ok {
				return Input{}, ErrInvalidAllowances
			}
		}
	}

	in.ProfessionalTaxCountry = DefaultCountry
	if c := fields["professionalTaxCountry"]; !isNull(c) {
		if err := json.Unmarshal(c, &in.ProfessionalTaxCountry); err != nil {
			return Input{}, ErrInvalidCountry
		}
	}

	return in, Validate(in)
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// number reads a JSON number; absent and null read as zero.
func number(raw json.RawMessage) (float64, bool) {
	if isNull(raw) {
		return 0, true
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}
