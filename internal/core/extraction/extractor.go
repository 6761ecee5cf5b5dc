// Package extraction infers structured invoice fields from raw text
// recovered from a PDF or an OCR pass. Every function is pure and an
// Extractor is safe for concurrent use.
package extraction

import (
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/shopspring/decimal"
)

// Extractor holds a compiled rule table.
type Extractor struct {
	companyLines      int
	companyPatterns   []compiledPattern
	companyIndicators []*regexp.Regexp
	companyAnti       []*regexp.Regexp
	companySector     *regexp.Regexp

	invoicePatterns []compiledPattern
	invoiceShapes   []*regexp.Regexp
	invoiceAnti     []*regexp.Regexp

	datePatterns        []compiledPattern
	amountPatterns      []compiledPattern
	vatRates            []decimal.Decimal
	descriptionPatterns []compiledPattern

	context *contextScorer
}

// New compiles rules into an Extractor.
func New(rules Rules) (*Extractor, error) {
	if rules.CompanyLines <= 0 {
		return nil, errors.New("company lines must be greater than 0")
	}
	if len(rules.VATRates) == 0 {
		return nil, errors.New("at least one vat rate is required")
	}

	e := &Extractor{companyLines: rules.CompanyLines}

	var err error
	if e.companyPatterns, err = compilePatterns("company", rules.CompanyPatterns); err != nil {
		return nil, err
	}
	if e.companyIndicators, err = compileExprs("company indicator", rules.CompanyIndicators); err != nil {
		return nil, err
	}
	if e.companyAnti, err = compileExprs("company anti-pattern", rules.CompanyAntiPatterns); err != nil {
		return nil, err
	}
	if e.companySector, err = regexp.Compile(rules.CompanySectorBonus); err != nil {
		return nil, fmt.Errorf("compile company sector bonus: %w", err)
	}
	if e.invoicePatterns, err = compilePatterns("invoice", rules.InvoicePatterns); err != nil {
		return nil, err
	}
	if e.invoiceShapes, err = compileExprs("invoice shape", rules.InvoiceShapes); err != nil {
		return nil, err
	}
	if e.invoiceAnti, err = compileExprs("invoice anti-pattern", rules.InvoiceAntiPatterns); err != nil {
		return nil, err
	}
	if e.datePatterns, err = compilePatterns("date", rules.DatePatterns); err != nil {
		return nil, err
	}
	if e.amountPatterns, err = compilePatterns("amount", rules.AmountPatterns); err != nil {
		return nil, err
	}
	if e.vatRates, err = parseRates(rules.VATRates); err != nil {
		return nil, err
	}
	if e.descriptionPatterns, err = compilePatterns("description", rules.DescriptionPatterns); err != nil {
		return nil, err
	}
	if e.context, err = newContextScorer(rules.ContextKeywords); err != nil {
		return nil, err
	}

	return e, nil
}

// MustNew is like New but panics on an invalid rule table.
func MustNew(rules Rules) *Extractor {
	e, err := New(rules)
	if err != nil {
		panic(fmt.Sprintf("extraction: %v", err))
	}
	return e
}

var defaultExtractor = MustNew(DefaultRules())

// Default returns the shared extractor built from DefaultRules.
func Default() *Extractor {
	return defaultExtractor
}

// Extract runs the default extractor over text.
func Extract(text string) Fields {
	return defaultExtractor.Extract(text)
}

// Extract runs every field extractor over text and accumulates confidence
// for the fields that survive their plausibility checks. It never fails;
// an unset field is the only signal that nothing was found.
func (e *Extractor) Extract(text string) Fields {
	confidence := BaseConfidence
	var f Fields

	if name, ok := e.CompanyName(text); ok && e.IsLikelyCompanyName(name) {
		f.CompanyName = stringPtr(name)
		confidence += CompanyNameWeight
	}

	if number, ok := e.InvoiceNumber(text); ok && e.IsLikelyInvoiceNumber(number) {
		f.InvoiceNumber = stringPtr(number)
		confidence += InvoiceNumberWeight
	}

	if dates := e.Dates(text); len(dates) > 0 {
		f.IssueDate = stringPtr(dates[0])
		confidence += IssueDateWeight
		if len(dates) > 1 {
			f.DueDate = stringPtr(dates[1])
			confidence += DueDateWeight
		}
	}

	amounts := e.Amounts(text)
	if amounts.Total.Valid {
		f.TotalAmount = floatPtr(amounts.Total.Decimal.InexactFloat64())
		confidence += TotalAmountWeight

		if amounts.Reconciled() {
			f.NetAmount = floatPtr(amounts.Net.Decimal.InexactFloat64())
			f.VATAmount = floatPtr(amounts.VAT.Decimal.InexactFloat64())
			f.VATRate = floatPtr(amounts.Rate.Decimal.InexactFloat64())
			confidence += ReconciledAmountsWeight
		}
	}

	if description, ok := e.Description(text); ok {
		f.Description = stringPtr(description)
		confidence += DescriptionWeight
	}

	f.Confidence = math.Min(confidence, MaxConfidence)
	return f
}
