package extraction

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestExtractAmounts(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		total string
		net   string
		vat   string
		rate  string
	}{
		{
			name:  "general rate",
			text:  "Base 100,00 €\nIVA 21% 21,00 €\nTotal 121,00 €",
			total: "121", net: "100", vat: "21", rate: "21",
		},
		{
			name:  "reduced rate",
			text:  "Base: 200,00 €\nIVA 10%: 20,00 €\nTotal: 220,00 €",
			total: "220", net: "200", vat: "20", rate: "10",
		},
		{
			name:  "closest rate wins over first eligible",
			text:  "Base: 50,00 €\nTotal: 52,00 €",
			total: "52", net: "50", vat: "2", rate: "4",
		},
		{
			name:  "grouped thousands",
			text:  "Base: 1.000,00 €\nIVA: 210,00 €\nTotal: 1.210,00 €",
			total: "1210", net: "1000", vat: "210", rate: "21",
		},
		{
			name:  "unrelated amounts keep only the total",
			text:  "Total: 200,00 €\nBase: 50,00 €",
			total: "200",
		},
		{
			name:  "single labelled amount",
			text:  "Importe 45,50",
			total: "45.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractAmounts(tt.text)
			assertNullDecimal(t, "total", got.Total, tt.total)
			assertNullDecimal(t, "net", got.Net, tt.net)
			assertNullDecimal(t, "vat", got.VAT, tt.vat)
			assertNullDecimal(t, "rate", got.Rate, tt.rate)
		})
	}
}

func TestExtractAmounts_None(t *testing.T) {
	got := ExtractAmounts("Reparación de equipo sin importes")
	if got.Total.Valid || got.Reconciled() {
		t.Errorf("expected no amounts, got %+v", got)
	}
}

func TestExtractAmounts_ReconciledTripleIsConsistent(t *testing.T) {
	texts := []string{
		"Base 100,00 €\nIVA 21,00 €\nTotal 121,00 €",
		"Neto: 80,00 €\nTotal: 88,00 €",
		"Base: 250,00 €\nIVA: 52,50 €\nTotal: 302,50 €\nEntregado: 400,00 €",
	}

	for _, text := range texts {
		got := ExtractAmounts(text)
		if !got.Reconciled() {
			continue
		}
		net := got.Net.Decimal
		implied := net.Mul(got.Rate.Decimal).Div(hundred)
		if !got.VAT.Decimal.Sub(implied).Abs().LessThan(net.Mul(reconcileTolerance)) {
			t.Errorf("inconsistent triple for %q: %+v", text, got)
		}
		if !got.Total.Decimal.GreaterThan(net) {
			t.Errorf("expected total above net for %q, got %+v", text, got)
		}
	}
}

func assertNullDecimal(t *testing.T, field string, got decimal.NullDecimal, want string) {
	t.Helper()
	if want == "" {
		if got.Valid {
			t.Errorf("expected %s unset, got %s", field, got.Decimal)
		}
		return
	}
	if !got.Valid {
		t.Errorf("expected %s %s, got unset", field, want)
		return
	}
	if !got.Decimal.Equal(decimal.RequireFromString(want)) {
		t.Errorf("expected %s %s, got %s", field, want, got.Decimal)
	}
}
