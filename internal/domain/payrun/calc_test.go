package payrun

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGrossPayWithOvertime(t *testing.T) {
	calc := NewCalculator(DefaultTaxTable())
	gross, err := calc.GrossPay(d("38"), d("7"), d("48"), decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := gross.StringFixed(2); got != "2328.00" {
		t.Fatalf("expected gross 2328.00, got %s", got)
	}
}

func TestGrossPayIncludesAllowances(t *testing.T) {
	calc := NewCalculator(DefaultTaxTable())
	gross, err := calc.GrossPay(d("10"), decimal.Zero, d("30"), d("55.20"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := gross.StringFixed(2); got != "355.20" {
		t.Fatalf("expected gross 355.20, got %s", got)
	}
}

func TestGrossPayRejectsNegativeInputs(t *testing.T) {
	calc := NewCalculator(DefaultTaxTable())
	if _, err := calc.GrossPay(d("-1"), decimal.Zero, d("30"), decimal.Zero); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := calc.GrossPay(d("10"), decimal.Zero, d("30"), d("-5")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTaxWithheldBrackets(t *testing.T) {
	calc := NewCalculator(DefaultTaxTable())
	cases := []struct {
		gross string
		want  string
	}{
		{"0", "0.00"},
		{"370", "0.00"},     // boundary stays in the tax-free band
		{"370.01", "0.00"},  // 0.001 rounds away
		{"500", "13.00"},    // (500-370) x 0.10
		{"900", "53.00"},    // top of the 10% band
		{"1325", "133.75"},  // 53 + (1325-900) x 0.19
		{"1500", "167.00"},  // top of the 19% band
		{"3000", "654.50"},  // top of the 32.5% band
		{"4000", "1024.50"}, // 654.5 + 1000 x 0.37
		{"5000", "1394.50"}, // top of the 37% band
		{"6000", "1844.50"}, // 1394.5 + 1000 x 0.45
	}
	for _, tc := range cases {
		tax, err := calc.TaxWithheld(d(tc.gross))
		if err != nil {
			t.Fatalf("gross %s: unexpected error: %v", tc.gross, err)
		}
		if got := tax.StringFixed(2); got != tc.want {
			t.Fatalf("gross %s: expected tax %s, got %s", tc.gross, tc.want, got)
		}
	}
}

func TestTaxWithheldRejectsNegativeGross(t *testing.T) {
	calc := NewCalculator(DefaultTaxTable())
	if _, err := calc.TaxWithheld(d("-100")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSuperContribution(t *testing.T) {
	calc := NewCalculator(DefaultTaxTable())
	super, err := calc.SuperContribution(d("2328"), d("0.115"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := super.StringFixed(2); got != "267.72" {
		t.Fatalf("expected super 267.72, got %s", got)
	}
}

func TestNetPay(t *testing.T) {
	calc := NewCalculator(DefaultTaxTable())
	net, err := calc.NetPay(d("1325"), d("133.75"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := net.StringFixed(2); got != "1191.25" {
		t.Fatalf("expected net 1191.25, got %s", got)
	}
}

func TestTaxWithheldUsesProvidedTable(t *testing.T) {
	flat := TaxTable{
		Version: "flat-20",
		Brackets: []TaxBracket{
			{Threshold: decimal.Zero, Base: decimal.Zero, Rate: decimal.Zero},
			{Threshold: d("100"), Base: decimal.Zero, Rate: d("0.20")},
		},
	}
	calc := NewCalculator(flat)

	tax, err := calc.TaxWithheld(d("600"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tax.StringFixed(2); got != "100.00" {
		t.Fatalf("expected tax 100.00 under flat table, got %s", got)
	}
}

func TestCalculatorIsDeterministic(t *testing.T) {
	calc := NewCalculator(DefaultTaxTable())
	first, err := calc.TaxWithheld(d("2328"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := calc.TaxWithheld(d("2328"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !again.Equal(first) {
			t.Fatalf("expected identical result, got %s then %s", first, again)
		}
	}
}
