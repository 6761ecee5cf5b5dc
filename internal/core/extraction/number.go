package extraction

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	reInvoiceLabel   = regexp.MustCompile(`(?i)^(?:factura|invoice|nº|núm\.?|n\.?|fac|inv|fc|f|number)[\s.:]*-?`)
	reHasYearRun     = regexp.MustCompile(`\d{4}`)
	reLeadingLetters = regexp.MustCompile(`^[A-Z]{1,4}`)
	reHasSeparator   = regexp.MustCompile(`[-/]`)
	reAllDigits      = regexp.MustCompile(`^\d+$`)
	reDateShape      = regexp.MustCompile(`^\d{1,2}[-/]\d{1,2}[-/]\d{4}$`)
	reMoneyShape     = regexp.MustCompile(`€|[,.]\d{2}$`)
)

const (
	minInvoiceNumLen = 3
	maxInvoiceNumLen = 20
)

type scoredCandidate struct {
	value string
	score int
}

// ExtractInvoiceNumber runs the default extractor's invoice number extractor.
func ExtractInvoiceNumber(text string) (string, bool) {
	return defaultExtractor.InvoiceNumber(text)
}

// IsLikelyInvoiceNumber applies the default plausibility check.
func IsLikelyInvoiceNumber(number string) bool {
	return defaultExtractor.IsLikelyInvoiceNumber(number)
}

// InvoiceNumber returns the best scoring invoice identifier, uppercased.
// It reports false when no candidate scores above zero.
func (e *Extractor) InvoiceNumber(text string) (string, bool) {
	var candidates []scoredCandidate

	for _, p := range e.invoicePatterns {
		for _, match := range p.matches(text) {
			token := strings.TrimSpace(reInvoiceLabel.ReplaceAllString(match, ""))
			n := utf8.RuneCountInString(token)
			if n < minInvoiceNumLen || n > maxInvoiceNumLen {
				continue
			}

			score := 1
			if reHasYearRun.MatchString(token) {
				score += 3
			}
			if reLeadingLetters.MatchString(token) {
				score += 2
			}
			if reHasSeparator.MatchString(token) {
				score += 2
			}
			if reAllDigits.MatchString(token) && n >= 4 {
				score += 1
			}
			lower := strings.ToLower(match)
			if strings.Contains(lower, "factura") || strings.Contains(lower, "nº") {
				score += 2
			}
			if reDateShape.MatchString(token) {
				score -= 3
			}
			if reMoneyShape.MatchString(token) {
				score -= 3
			}
			score += e.context.score(text, token)

			candidates = append(candidates, scoredCandidate{value: strings.ToUpper(token), score: score})
		}
	}

	best, ok := pickBest(candidates)
	if !ok || best.score <= 0 {
		return "", false
	}
	return best.value, true
}

// IsLikelyInvoiceNumber reports whether number has a known invoice shape and
// does not look like a date or an amount.
func (e *Extractor) IsLikelyInvoiceNumber(number string) bool {
	n := utf8.RuneCountInString(number)
	if n < minInvoiceNumLen || n > maxInvoiceNumLen {
		return false
	}
	if anyMatch(e.invoiceAnti, number) {
		return false
	}
	return anyMatch(e.invoiceShapes, number)
}

// pickBest returns the highest scoring candidate; earlier candidates win ties.
func pickBest(candidates []scoredCandidate) (scoredCandidate, bool) {
	if len(candidates) == 0 {
		return scoredCandidate{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	return candidates[0], true
}
