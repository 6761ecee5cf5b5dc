package extraction

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Pattern is one entry of an ordered pattern family.
type Pattern struct {
	Expr string
	// FirstOnly keeps only the leftmost match instead of every match.
	FirstOnly bool
}

// KeywordGroup awards Bonus once when any of its keywords appears in the
// window around a located term.
type KeywordGroup struct {
	Keywords []string
	Bonus    int
}

// Rules is the heuristic table driving every field extractor. Keyword lists
// live here so they can be extended without touching the extractors.
type Rules struct {
	// CompanyLines is how many non-empty lines from the top are searched.
	CompanyLines        int
	CompanyPatterns     []Pattern
	CompanyIndicators   []string
	CompanyAntiPatterns []string
	CompanySectorBonus  string

	InvoicePatterns     []Pattern
	InvoiceShapes       []string
	InvoiceAntiPatterns []string

	DatePatterns   []Pattern
	AmountPatterns []Pattern
	// VATRates are fractions tried in order during reconciliation.
	VATRates []string

	DescriptionPatterns []Pattern

	ContextKeywords []KeywordGroup
}

// amountToken captures "1.234,56" style grouped amounts as well as plain
// two-decimal amounts.
const amountToken = `(\d{1,3}(?:\.\d{3})+,\d{2}|\d+[,.]\d{2})`

// DefaultRules returns the table tuned for Spanish HVAC repair invoices.
func DefaultRules() Rules {
	return Rules{
		CompanyLines: 10,
		CompanyPatterns: []Pattern{
			// legal entity suffix
			{Expr: `([A-ZÁÉÍÓÚÑ][A-Za-záéíóúñ\s.,-]{2,50}(?:\s+S\.?L\.?(?:\s+U\.?)?|S\.?A\.?|S\.?C\.?P\.?|C\.?B\.?|A\.?I\.?E\.?))`},
			// sector keyword
			{Expr: `(?i)([A-ZÁÉÍÓÚÑ][A-Za-záéíóúñ\s.,-]*(?:Climatización|Refrigeración|HVAC|Aire|Frío|Calor|Energía|Instalaciones|Mantenimiento|Reparaciones|Servicios|Técnica|Ingeniería)[A-Za-záéíóúñ\s.,-]*)`},
			// name followed by tax id
			{Expr: `(?i)([A-ZÁÉÍÓÚÑ][A-Za-záéíóúñ\s.,-]{5,40})\s+(?:CIF|NIF)[\s.:]*[A-Z]\d{8}[A-Z0-9]`},
			// standalone capitalised line
			{Expr: `(?m)^([A-ZÁÉÍÓÚÑ][A-Za-záéíóúñ\s.,-]{5,50})$`, FirstOnly: true},
			// explicit issuer label
			{Expr: `(?i)(?:factura\s+de|emisor|empresa)[\s.:]*([A-ZÁÉÍÓÚÑ][A-Za-záéíóúñ\s.,-]{5,40})`},
		},
		CompanyIndicators: []string{
			`(?i)S\.?L\.?(?:\s+U\.?)?|S\.?A\.?|C\.?B\.?`,
			`(?i)\b(?:Empresa|Compañía|Sociedad|Servicios|Técnica?s?|Ingeniería|Instalaciones)\b`,
			`(?i)\b(?:Climatización|Refrigeración|HVAC|Aire|Frío|Calor|Energía)\b`,
			`(?i)\b(?:Mantenimiento|Reparaciones|Servicios)\b`,
		},
		CompanyAntiPatterns: []string{
			`\d{8,}`,
			`€|EUR|\d+[,.]\d{2}`,
			`\b\d{1,2}[-/]\d{1,2}[-/]\d{4}\b`,
			`(?i)^(?:Calle|Avda|Plaza|C/)`,
			`(?i)\b(?:Gmail|Hotmail|Yahoo|Outlook)\b`,
			`(?i)^www\.|\.com|\.es$`,
		},
		CompanySectorBonus: `(?i)climatización|refrigeración|hvac|aire|instalaciones`,

		InvoicePatterns: []Pattern{
			{Expr: `(?i)(?:factura|invoice|nº|núm\.?|n\.?)[\s.:]*([A-Z]{0,4}[-/]?\d{1,4}[-/]?\d{4})`},
			{Expr: `(?i)(?:FAC|INV|FC|F)[-\s]?(\d{4}[-/]?\d{1,4})`},
			{Expr: `(?i)(?:FAC|INV|FC|F)[-\s]?(\d{1,4}[-/]?\d{4})`},
			{Expr: `(?i)(?:factura|invoice|nº|núm)[\s.:]*(\d{6,12})`},
			{Expr: `(\d{4}[-/]\d{1,4})`},
			{Expr: `([A-Z]{1,3}\d{4}[-/]?\d{1,4})`},
			{Expr: `(?i)(?:nº|núm\.?|number)[\s.:]*([A-Z0-9\-/]{4,15})`},
			{Expr: `\b([A-Z]{2,4}[-\s]?\d{3,8})\b`},
		},
		InvoiceShapes: []string{
			`^[A-Z]{1,4}\d{3,8}$`,
			`^[A-Z]{1,4}[-/]\d{3,8}$`,
			`^[A-Z]{1,4}[-/]\d{4}[-/]\d{1,6}$`,
			`^\d{4}[-/]\d{1,4}$`,
			`^\d{6,12}$`,
			`^[A-Z]\d{4}[-/]?\d{1,4}$`,
		},
		InvoiceAntiPatterns: []string{
			`^\d{1,2}[-/]\d{1,2}[-/]\d{4}$`,
			`€`,
			`[,.]\d{2}$`,
		},

		DatePatterns: []Pattern{
			{Expr: `(?i)(?:fecha|date)[\s.:]*(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`},
			{Expr: `(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`},
		},

		AmountPatterns: []Pattern{
			{Expr: `(?i)(?:total|importe)[\s.:]*€?\s*` + amountToken},
			{Expr: `(?i)(?:base|neto)[\s.:]*€?\s*` + amountToken},
			{Expr: `(?i)(?:iva|vat)[\s.:]*€?\s*` + amountToken},
			{Expr: `€\s*` + amountToken},
			{Expr: amountToken + `\s*€`},
		},
		VATRates: []string{"0.21", "0.10", "0.04"},

		DescriptionPatterns: []Pattern{
			{Expr: `(?i)(?:concepto|descripción|detalle)[\s.:]*([^\n]+)`, FirstOnly: true},
			{Expr: `(?i)(?:trabajo|servicio|producto)[\s.:]*([^\n]+)`, FirstOnly: true},
			{Expr: `(?i)(?:reparación|mantenimiento|instalación)[\s.:]*([^\n]+)`, FirstOnly: true},
		},

		ContextKeywords: []KeywordGroup{
			{Keywords: []string{"factura", "invoice"}, Bonus: 2},
			{Keywords: []string{"emisor", "proveedor", "empresa"}, Bonus: 1},
			{Keywords: []string{"fecha", "date"}, Bonus: 1},
			{Keywords: []string{"nº", "núm", "number"}, Bonus: 1},
		},
	}
}

type compiledPattern struct {
	re        *regexp.Regexp
	firstOnly bool
}

// matches returns whole matches in encounter order.
func (p compiledPattern) matches(text string) []string {
	if p.firstOnly {
		if m := p.re.FindString(text); m != "" {
			return []string{m}
		}
		return nil
	}
	return p.re.FindAllString(text, -1)
}

// groups returns the first capture group of each match, falling back to the
// whole match for expressions without groups.
func (p compiledPattern) groups(text string) []string {
	limit := -1
	if p.firstOnly {
		limit = 1
	}
	var out []string
	for _, sub := range p.re.FindAllStringSubmatch(text, limit) {
		if len(sub) > 1 {
			out = append(out, sub[1])
		} else {
			out = append(out, sub[0])
		}
	}
	return out
}

func compilePatterns(field string, patterns []Pattern) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			return nil, fmt.Errorf("compile %s pattern %d: %w", field, i, err)
		}
		out = append(out, compiledPattern{re: re, firstOnly: p.FirstOnly})
	}
	return out, nil
}

func compileExprs(field string, exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for i, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile %s expression %d: %w", field, i, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func parseRates(rates []string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, 0, len(rates))
	for _, r := range rates {
		d, err := decimal.NewFromString(r)
		if err != nil {
			return nil, fmt.Errorf("parse vat rate %q: %w", r, err)
		}
		if !d.IsPositive() || d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("vat rate %q must be a fraction in (0,1)", r)
		}
		out = append(out, d)
	}
	return out, nil
}

func anyMatch(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
