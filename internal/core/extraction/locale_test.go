package extraction

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseSpanishNumber(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "thousands and decimals", token: "1.234,56", want: "1234.56"},
		{name: "comma decimal", token: "1234,56", want: "1234.56"},
		{name: "dot decimal with two digits", token: "1234.56", want: "1234.56"},
		{name: "dot thousands", token: "1.234", want: "1234"},
		{name: "several dot groups", token: "1.234.567", want: "1234567"},
		{name: "single fraction digit after dot", token: "12.5", want: "125"},
		{name: "currency noise", token: "121,00 €", want: "121"},
		{name: "plain integer", token: "450", want: "450"},
		{name: "dot before comma is malformed", token: "1,234.56", want: "0"},
		{name: "two commas is malformed", token: "1,2,3", want: "0"},
		{name: "no digits", token: "abc", want: "0"},
		{name: "empty", token: "", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSpanishNumber(tt.token)
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("expected %s, got %s", want, got)
			}
		})
	}
}

func TestParseSpanishDate(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		want   string
		wantOK bool
	}{
		{name: "slashes", token: "01/03/2024", want: "2024-03-01", wantOK: true},
		{name: "label and dashes", token: "Fecha: 1-3-24", want: "2024-03-01", wantOK: true},
		{name: "upper bound year", token: "01/03/30", want: "2030-03-01", wantOK: true},
		{name: "month out of range", token: "15-13-2024", wantOK: false},
		{name: "day out of range", token: "32/01/2024", wantOK: false},
		{name: "zero day", token: "0/1/2024", wantOK: false},
		{name: "year before window", token: "01/03/1999", wantOK: false},
		{name: "two digit year pivots to last century", token: "01/03/99", wantOK: false},
		{name: "two digit year after window", token: "01/03/49", wantOK: false},
		{name: "missing part", token: "01/2024", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseSpanishDate(tt.token)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v (%q)", tt.wantOK, ok, got)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
