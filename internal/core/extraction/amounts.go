package extraction

import (
	"sort"

	"github.com/shopspring/decimal"
)

var (
	hundred            = decimal.NewFromInt(100)
	reconcileTolerance = decimal.RequireFromString("0.1")
)

// Amounts is the best-effort monetary breakdown of an invoice. Rate is a
// percentage. Net, VAT and Rate are either all valid or all unset.
type Amounts struct {
	Total decimal.NullDecimal
	Net   decimal.NullDecimal
	VAT   decimal.NullDecimal
	Rate  decimal.NullDecimal
}

// Reconciled reports whether the net/VAT/rate triple was resolved.
func (a Amounts) Reconciled() bool {
	return a.Net.Valid && a.VAT.Valid && a.Rate.Valid
}

// ExtractAmounts runs the default extractor's amount extractor.
func ExtractAmounts(text string) Amounts {
	return defaultExtractor.Amounts(text)
}

// Amounts collects the amounts written next to a label or a euro sign. The
// largest is the total; the net/VAT split is set only when some smaller
// amount plus one of the configured VAT rates explains the total.
func (e *Extractor) Amounts(text string) Amounts {
	var values []decimal.Decimal
	for _, p := range e.amountPatterns {
		for _, token := range p.groups(text) {
			if v := ParseSpanishNumber(token); v.IsPositive() {
				values = append(values, v)
			}
		}
	}
	if len(values) == 0 {
		return Amounts{}
	}

	sort.SliceStable(values, func(i, j int) bool {
		return values[i].GreaterThan(values[j])
	})
	values = distinctSorted(values)

	total := values[0]
	result := Amounts{Total: decimal.NewNullDecimal(total)}

	if net, vat, rate, ok := e.reconcile(total, values[1:]); ok {
		result.Net = decimal.NewNullDecimal(net)
		result.VAT = decimal.NewNullDecimal(vat)
		result.Rate = decimal.NewNullDecimal(rate)
	}
	return result
}

// reconcile pairs total with every smaller candidate and every VAT rate and
// keeps the combination whose implied VAT is closest to candidate*rate. The
// first combination wins ties. A combination is only eligible when its
// difference is under 10% of the candidate.
func (e *Extractor) reconcile(total decimal.Decimal, candidates []decimal.Decimal) (net, vat, rate decimal.Decimal, ok bool) {
	var bestDiff decimal.Decimal
	for _, candidate := range candidates {
		remainder := total.Sub(candidate)
		limit := candidate.Mul(reconcileTolerance)

		for _, r := range e.vatRates {
			expected := candidate.Mul(r)
			diff := remainder.Sub(expected).Abs()
			if !diff.LessThan(limit) {
				continue
			}
			if ok && !diff.LessThan(bestDiff) {
				continue
			}
			bestDiff = diff
			net, vat, rate, ok = candidate, expected, r.Mul(hundred), true
		}
	}
	return net, vat, rate, ok
}

func distinctSorted(values []decimal.Decimal) []decimal.Decimal {
	out := values[:1]
	for _, v := range values[1:] {
		if !v.Equal(out[len(out)-1]) {
			out = append(out, v)
		}
	}
	return out
}
