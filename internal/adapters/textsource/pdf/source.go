// Package pdf recovers the text layer of PDF invoices.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	ledpdf "github.com/ledongthuc/pdf"
)

var (
	// ErrNoText is returned for PDFs without a text layer, typically scans
	// that should go through OCR instead.
	ErrNoText = errors.New("el PDF no contiene texto extraíble")
	// ErrMalformed wraps parser failures on corrupt input.
	ErrMalformed = errors.New("el PDF está dañado o no es válido")
)

// Source extracts text from PDF bytes page by page. Glyphs sharing a
// baseline form one line, lines run top to bottom and pages are separated by
// a blank line.
type Source struct {
	maxPages int
	log      *slog.Logger
}

// NewSource creates a PDF text source. A non-positive maxPages reads every
// page.
func NewSource(maxPages int, log *slog.Logger) *Source {
	return &Source{maxPages: maxPages, log: log}
}

// ExtractText implements document.TextSource.
func (s *Source) ExtractText(ctx context.Context, content []byte) (text string, err error) {
	// The parser panics on some corrupt cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	reader, err := ledpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	pages := reader.NumPage()
	if s.maxPages > 0 && pages > s.maxPages {
		if s.log != nil {
			s.log.Warn("pdf page limit reached", "pages", pages, "max_pages", s.maxPages)
		}
		pages = s.maxPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		lines := pageLines(page.Content().Text)
		if len(lines) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		for _, line := range lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	text = strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// Check verifies the parser can open a minimal document.
func (s *Source) Check(ctx context.Context) error {
	_, err := s.ExtractText(ctx, minimalPDF)
	if errors.Is(err, ErrNoText) {
		return nil
	}
	return err
}

// wordGap is the horizontal gap, as a fraction of the font size, above which
// two glyphs on a line are treated as separate words.
const wordGap = 0.25

// pageLines groups positioned glyphs into lines by rounded baseline, highest
// first, and orders each line left to right. Glyphs at the same X keep their
// content stream order.
func pageLines(glyphs []ledpdf.Text) []string {
	rows := make(map[float64][]ledpdf.Text)
	for _, g := range glyphs {
		y := math.Round(g.Y)
		rows[y] = append(rows[y], g)
	}

	ys := make([]float64, 0, len(rows))
	for y := range rows {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ys)))

	lines := make([]string, 0, len(ys))
	for _, y := range ys {
		row := rows[y]
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		var b strings.Builder
		for i, g := range row {
			if i > 0 {
				prev := row[i-1]
				if prev.W > 0 && g.X-(prev.X+prev.W) > wordGap*g.FontSize {
					b.WriteString(" ")
				}
			}
			b.WriteString(g.S)
		}
		if line := strings.Join(strings.Fields(b.String()), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
