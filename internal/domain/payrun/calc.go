package payrun

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// overtimeLoading is the multiplier applied to the base rate for hours beyond
// the weekly threshold. There are no higher tiers.
var overtimeLoading = decimal.RequireFromString("1.5")

// TaxBracket is one marginal band: for gross above Threshold (up to the next
// bracket's threshold), tax = Base + (gross − Threshold) × Rate.
type TaxBracket struct {
	Threshold decimal.Decimal
	Base      decimal.Decimal
	Rate      decimal.Decimal
}

// TaxTable is a versioned withholding schedule. Brackets are ordered by
// ascending threshold; the first bracket must start at zero.
type TaxTable struct {
	Version  string
	Brackets []TaxBracket
}

// DefaultTaxTable returns the fixed progressive schedule in effect for the
// covered periods. Marginal rates are applied directly to the period's gross,
// not annualized.
func DefaultTaxTable() TaxTable {
	d := decimal.RequireFromString
	return TaxTable{
		Version: "2024-period",
		Brackets: []TaxBracket{
			{Threshold: decimal.Zero, Base: decimal.Zero, Rate: decimal.Zero},
			{Threshold: d("370"), Base: decimal.Zero, Rate: d("0.10")},
			{Threshold: d("900"), Base: d("53"), Rate: d("0.19")},
			{Threshold: d("1500"), Base: d("167"), Rate: d("0.325")},
			{Threshold: d("3000"), Base: d("654.5"), Rate: d("0.37")},
			{Threshold: d("5000"), Base: d("1394.5"), Rate: d("0.45")},
		},
	}
}

// Calculator derives pay components from hours and a pay rate. All methods
// are pure and deterministic; amounts are rounded half-up at the cent.
type Calculator struct {
	Table TaxTable
}

func NewCalculator(table TaxTable) Calculator {
	return Calculator{Table: table}
}

func (c Calculator) GrossPay(normalHours, overtimeHours, baseRate, allowances decimal.Decimal) (decimal.Decimal, error) {
	for name, v := range map[string]decimal.Decimal{
		"normalHours": normalHours, "overtimeHours": overtimeHours, "baseRate": baseRate, "allowances": allowances,
	} {
		if v.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: negative %s", ErrInvalidInput, name)
		}
	}
	gross := normalHours.Mul(baseRate).
		Add(overtimeHours.Mul(baseRate).Mul(overtimeLoading)).
		Add(allowances)
	return gross.Round(2), nil
}

func (c Calculator) TaxWithheld(gross decimal.Decimal) (decimal.Decimal, error) {
	if gross.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative gross", ErrInvalidInput)
	}
	bracket := c.Table.Brackets[0]
	for _, b := range c.Table.Brackets[1:] {
		if gross.GreaterThan(b.Threshold) {
			bracket = b
		}
	}
	tax := bracket.Base.Add(gross.Sub(bracket.Threshold).Mul(bracket.Rate))
	return tax.Round(2), nil
}

func (c Calculator) SuperContribution(gross, superRate decimal.Decimal) (decimal.Decimal, error) {
	if gross.IsNegative() || superRate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative gross or super rate", ErrInvalidInput)
	}
	return gross.Mul(superRate).Round(2), nil
}

// NetPay is gross minus tax. Super is an employer contribution on top of
// gross, never deducted here.
func (c Calculator) NetPay(gross, tax decimal.Decimal) (decimal.Decimal, error) {
	if gross.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative gross", ErrInvalidInput)
	}
	return gross.Sub(tax).Round(2), nil
}
