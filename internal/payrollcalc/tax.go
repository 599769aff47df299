package payrollcalc

import "github.com/shopspring/decimal"

const DefaultCountry = "IN"

// Band taxes the slice of annual income above the previous band's ceiling
// up to UpTo. A zero UpTo marks the open top band.
type Band struct {
	UpTo decimal.Decimal
	Rate decimal.Decimal
}

// Slab maps monthly gross up to and including UpTo onto a fixed amount.
// A zero UpTo matches everything above the previous slab.
type Slab struct {
	UpTo   decimal.Decimal
	Amount decimal.Decimal
}

type TaxTable struct {
	Bands           []Band
	ProfessionalTax []Slab
}

// AnnualTax applies the progressive bands to annual income.
func (t TaxTable) AnnualTax(annual decimal.Decimal) decimal.Decimal {
	tax := decimal.Zero
	floor := decimal.Zero
	for _, b := range t.Bands {
		if annual.LessThanOrEqual(floor) {
			break
		}
		top := annual
		if !b.UpTo.IsZero() && annual.GreaterThan(b.UpTo) {
			top = b.UpTo
		}
		tax = tax.Add(top.Sub(floor).Mul(b.Rate))
		if b.UpTo.IsZero() {
			break
		}
		floor = b.UpTo
	}
	return tax
}

func (t TaxTable) ProfessionalTaxFor(monthlyGross decimal.Decimal) decimal.Decimal {
	for _, s := range t.ProfessionalTax {
		if s.UpTo.IsZero() || monthlyGross.LessThanOrEqual(s.UpTo) {
			return s.Amount
		}
	}
	return decimal.Zero
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func pct(v int64) decimal.Decimal { return decimal.New(v, -2) }

// IndiaTable is the "IN" slab structure: nil up to 2.5L, 5% to 5L, 20% to
// 10L, 30% above. Professional tax 150/200/250 by monthly gross.
var IndiaTable = TaxTable{
	Bands: []Band{
		{UpTo: d(250000), Rate: decimal.Zero},
		{UpTo: d(500000), Rate: pct(5)},
		{UpTo: d(1000000), Rate: pct(20)},
		{Rate: pct(30)},
	},
	ProfessionalTax: []Slab{
		{UpTo: d(15000), Amount: d(150)},
		{UpTo: d(25000), Amount: d(200)},
		{Amount: d(250)},
	},
}

// flatTable applies to any country without a registered table.
var flatTable = TaxTable{
	Bands: []Band{{Rate: pct(15)}},
}

// DefaultTables is the registry used by Calculate.
func DefaultTables() map[string]TaxTable {
	return map[string]TaxTable{DefaultCountry: IndiaTable}
}
