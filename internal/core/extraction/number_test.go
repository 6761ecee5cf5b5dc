package extraction

import "testing"

func TestExtractInvoiceNumber(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "prefixed number next to label",
			text:   scenarioInvoice,
			want:   "FAC-2024-0123",
			wantOK: true,
		},
		{
			name:   "year slash sequence",
			text:   "Factura nº: 2024/0456\nFecha 10/02/2024",
			want:   "2024/0456",
			wantOK: true,
		},
		{
			name:   "only a date",
			text:   "Fecha: 15/03/2024",
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
			got, ok := ExtractInvoiceNumber(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v (%q)", tt.wantOK, ok, got)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIsLikelyInvoiceNumber(t *testing.T) {
	tests := []struct {
		number string
		want   bool
	}{
		{"FAC-2024-0123", true},
		{"F2024001", true},
		{"A2024-12", true},
		{"2024/15", true},
		{"123456", true},
		{"01/03/2024", false},
		{"12,50", false},
		{"AB", false},
		{"HELLO", false},
		{"FAC-2024-0123-EXTRA-LONG", false},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			if got := IsLikelyInvoiceNumber(tt.number); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPickBest_StableOnTies(t *testing.T) {
	got, ok := pickBest([]scoredCandidate{
		{value: "first", score: 4},
		{value: "second", score: 4},
		{value: "low", score: 1},
	})
	if !ok {
		t.Fatal("expected a candidate")
	}
	if got.value != "first" {
		t.Errorf("expected first, got %s", got.value)
	}
}
