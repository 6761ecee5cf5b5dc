package extraction

import (
	"fmt"
	"strings"
	"testing"
)

func fillerLines(n int, at int, line string) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("linea %d", i)
	}
	lines[at] = line
	return strings.Join(lines, "\n")
}

func TestContextScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		term string
		want int
	}{
		{
			name: "top line with every keyword nearby",
			text: "FACTURA Nº 2024-001\nFecha: 01/03/2024",
			term: "2024-001",
			want: 7,
		},
		{
			name: "case insensitive lookup",
			text: "Ref FAC-1",
			term: "fac-1",
			want: 3,
		},
		{
			name: "second band",
			text: fillerLines(20, 6, "REF-7788"),
			term: "REF-7788",
			want: 2,
		},
		{
			name: "first half",
			text: fillerLines(30, 12, "REF-7788"),
			term: "REF-7788",
			want: 1,
		},
		{
			name: "second half",
			text: fillerLines(30, 25, "REF-7788"),
			term: "REF-7788",
			want: 0,
		},
		{
			name: "proveedor counts once per group",
			text: "Proveedor\nEmpresa: REF-1\nEmisor",
			term: "REF-1",
			want: 4,
		},
		{
			name: "only first occurrence is scored",
			text: "REF-1\nx\nx\nx\nx\nx\nx\nx\nFactura REF-1",
			term: "REF-1",
			want: 3,
		},
		{
			name: "absent term",
			text: "FACTURA Nº 1",
			term: "ZZZ",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContextScore(tt.text, tt.term); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestNewContextScorer_Invalid(t *testing.T) {
	if _, err := newContextScorer(nil); err == nil {
		t.Error("expected error for missing groups")
	}
	if _, err := newContextScorer([]KeywordGroup{{Keywords: []string{" "}, Bonus: 1}}); err == nil {
		t.Error("expected error for blank keywords")
	}
}
