package payrollcalc

import (
	"math"

	"github.com/shopspring/decimal"
)

type Allowances struct {
	HRA        float64 `json:"hra"`
	Conveyance float64 `json:"conveyance"`
	Special    float64 `json:"special"`
}

type Input struct {
	Basic                  float64    `json:"basic"`
	Allowances             Allowances `json:"allowances"`
	Bonus                  float64    `json:"bonus"`
	CustomDeductions       float64    `json:"customDeductions"`
	ProfessionalTaxCountry string     `json:"professionalTaxCountry"`
}

type Breakdown struct {
	Tax              float64 `json:"tax"`
	TDS              float64 `json:"tds"`
	ProfessionalTax  float64 `json:"professionalTax"`
	PFEmployer       float64 `json:"pfEmployer"`
	PFEmployee       float64 `json:"pfEmployee"`
	CustomDeductions float64 `json:"customDeductions"`
}

type Result struct {
	GrossPay        float64   `json:"grossPay"`
	TotalDeductions float64   `json:"totalDeductions"`
	NetPay          float64   `json:"netPay"`
	Breakdown       Breakdown `json:"breakdown"`
}

// Engine computes monthly payroll from a tax table registry.
type Engine struct {
	tables map[string]TaxTable
	pfRate decimal.Decimal
	months decimal.Decimal
	places int32
}

type Option func(*Engine)

// WithTable registers or replaces the table for a country code. Codes are
// case-sensitive.
func WithTable(country string, t TaxTable) Option {
	return func(e *Engine) { e.tables[country] = t }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		tables: DefaultTables(),
		pfRate: pct(12),
		months: d(12),
		places: 2,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// Calculate runs the default engine.
func Calculate(in Input) (Result, error) {
	return defaultEngine.Calculate(in)
}

func (e *Engine) table(country string) TaxTable {
	if country == "" {
		country = DefaultCountry
	}
	// exact match only, "in" falls through to the flat rate
	if t, ok := e.tables[country]; ok {
		return t
	}
	return flatTable
}

// Calculate validates in and returns the monthly breakdown. Income tax is
// deducted twice, once as tax and once as TDS.
func (e *Engine) Calculate(in Input) (Result, error) {
	if err := Validate(in); err != nil {
		return Result{}, err
	}

	t := e.table(in.ProfessionalTaxCountry)

	basic := decimal.NewFromFloat(in.Basic)
	gross := basic.
		Add(decimal.NewFromFloat(in.Allowances.HRA)).
		Add(decimal.NewFromFloat(in.Allowances.Conveyance)).
		Add(decimal.NewFromFloat(in.Allowances.Special)).
		Add(decimal.NewFromFloat(in.Bonus))

	monthlyTax := t.AnnualTax(gross.Mul(e.months)).Div(e.months)
	// tds repeats the monthly tax and both count toward total; unconfirmed
	// whether the double count is intended.
	tds := monthlyTax
	professionalTax := t.ProfessionalTaxFor(gross)
	pf := basic.Mul(e.pfRate)
	custom := decimal.NewFromFloat(in.CustomDeductions)

	total := monthlyTax.Add(tds).Add(professionalTax).Add(pf).Add(custom)
	net := gross.Sub(total)
	if net.IsNegative() {
		net = decimal.Zero
	}

	return Result{
		GrossPay:        e.round(gross),
		TotalDeductions: e.round(total),
		NetPay:          e.round(net),
		Breakdown: Breakdown{
			Tax:              e.round(monthlyTax),
			TDS:              e.round(tds),
			ProfessionalTax:  e.round(professionalTax),
			PFEmployer:       e.round(pf),
			PFEmployee:       e.round(pf),
			CustomDeductions: e.round(custom),
		},
	}, nil
}

// round is half away from zero.
func (e *Engine) round(v decimal.Decimal) float64 {
	return v.Round(e.places).InexactFloat64()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
