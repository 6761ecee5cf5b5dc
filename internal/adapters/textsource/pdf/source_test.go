package pdf

import (
	"context"
	"errors"
	"strings"
	"testing"

	ledpdf "github.com/ledongthuc/pdf"

	"3tcapital/ms_extraccion_facturas/internal/core/extraction"
	"3tcapital/ms_extraccion_facturas/internal/testutil"
)

func TestSource_ExtractText(t *testing.T) {
	tests := []struct {
		name      string
		content   []byte
		wantLines []string
		wantErr   error
	}{
		{
			name:      "text layer",
			content:   Build([]string{"FACTURA FAC-2024-0123", "Total 121,00 EUR"}),
			wantLines: []string{"FACTURA FAC-2024-0123", "Total 121,00 EUR"},
		},
		{
			name:    "no text layer",
			content: Build(nil),
			wantErr: ErrNoText,
		},
		{
			name:    "not a pdf",
			content: []byte("hello"),
			wantErr: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewSource(0, testutil.NewNullLogger())
			text, err := src.ExtractText(context.Background(), tt.content)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			lines := strings.Split(text, "\n")
			if len(lines) != len(tt.wantLines) {
				t.Fatalf("expected %d lines, got %d: %q", len(tt.wantLines), len(lines), text)
			}
			for i, want := range tt.wantLines {
				if lines[i] != want {
					t.Errorf("line %d: expected %q, got %q", i, want, lines[i])
				}
			}
		})
	}
}

func TestSource_ExtractText_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSource(0, nil).ExtractText(ctx, Build([]string{"Total 1,00 EUR"}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSource_Check(t *testing.T) {
	if err := NewSource(0, nil).Check(context.Background()); err != nil {
		t.Fatalf("expected healthy parser, got %v", err)
	}
}

func TestEscapeText(t *testing.T) {
	if got := escapeText(`a(b)\c`); got != `a\(b\)\\c` {
		t.Errorf("expected escaped text, got %q", got)
	}
}

func TestSource_ExtractText_KeepsLineStructure(t *testing.T) {
	content := Build([]string{
		"Climatizacion Norte S.L.",
		"Factura FAC-2024-0123",
		"Concepto: Reparacion de split",
		"Base 100,00 EUR",
		"Total 121,00 EUR",
	})

	text, err := NewSource(0, nil).ExtractText(context.Background(), content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	description, ok := extraction.ExtractDescription(text)
	if !ok {
		t.Fatalf("expected a description in %q", text)
	}
	if description != "Reparacion de split" {
		t.Errorf("expected description %q, got %q", "Reparacion de split", description)
	}
}

func TestPageLines(t *testing.T) {
	glyph := func(s string, x, y, w float64) ledpdf.Text {
		return ledpdf.Text{S: s, X: x, Y: y, W: w, FontSize: 12}
	}

	tests := []struct {
		name   string
		glyphs []ledpdf.Text
		want   []string
	}{
		{
			name: "top to bottom",
			glyphs: []ledpdf.Text{
				glyph("B", 72, 700, 0),
				glyph("A", 72, 720, 0),
				glyph("C", 72, 680, 0),
			},
			want: []string{"A", "B", "C"},
		},
		{
			name: "left to right within a line",
			glyphs: []ledpdf.Text{
				glyph("b", 80, 720.2, 7),
				glyph("a", 73, 719.8, 7),
			},
			want: []string{"ab"},
		},
		{
			name: "gap splits words",
			glyphs: []ledpdf.Text{
				glyph("I", 72, 720, 3),
				glyph("V", 75, 720, 8),
				glyph("A", 100, 720, 8),
			},
			want: []string{"IV A"},
		},
		{
			name: "zero width keeps stream order",
			glyphs: []ledpdf.Text{
				glyph("T", 72, 720, 0),
				glyph("o", 72, 720, 0),
				glyph(" ", 72, 720, 0),
				glyph(" ", 72, 720, 0),
				glyph("1", 72, 720, 0),
			},
			want: []string{"To 1"},
		},
		{
			name:   "blank lines dropped",
			glyphs: []ledpdf.Text{glyph(" ", 72, 720, 0)},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pageLines(tt.glyphs)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d lines, got %d: %q", len(tt.want), len(got), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("line %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}
