package extraction

import "testing"

func TestExtractCompanyName(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "legal form on first line",
			text:   scenarioInvoice,
			want:   "Instalaciones Climatización del Sur S.L.",
			wantOK: true,
		},
		{
			name:   "tax id stripped from the same line",
			text:   "Frío Levante S.L. CIF: B123456789\nFactura 2024/12",
			want:   "Frío Levante S.L.",
			wantOK: true,
		},
		{
			name:   "nothing capitalised",
			text:   "sin datos relevantes",
			wantOK: false,
		},
		{
			name:   "empty text",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractCompanyName(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v (%q)", tt.wantOK, ok, got)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestScoreCompany_LegalAndSectorBonus(t *testing.T) {
	lines := nonEmptyLines(scenarioInvoice)
	name := "Instalaciones Climatización del Sur S.L."

	// 1 base + 3 legal + 2 capital + 2 top line + 1 no digit run + 1 no money + 2 sector
	if got := Default().scoreCompany(lines, name); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
}

func TestIsLikelyCompanyName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Instalaciones Climatización del Sur S.L.", true},
		{"Frío Industrial Levante", true},
		{"Reparaciones Rápidas Murcia", true},
		{"Distribuidora General de Recambios del Norte S.L.", true},
		{"Distribuidora General de Recambios del Norte Peninsular", false},
		{"Calle Mayor 12", false},
		{"Total 121,00", false},
		{"Contacto Gmail Soporte", false},
		{"servicios técnicos", false},
		{"abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLikelyCompanyName(tt.name); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLineOf(t *testing.T) {
	lines := []string{"Primera", "Climatización Norte S.L.", "Total"}

	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "single line", in: "Climatización Norte S.L.", want: 1},
		{name: "spanning lines falls back to head", in: "Climatización Norte S.L.\nTotal", want: 1},
		{name: "missing", in: "Otra Empresa", want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lineOf(lines, tt.in); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
