package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	reCompanyLabel  = regexp.MustCompile(`(?i)^(?:factura\s+de|emisor|empresa)[\s.:]*`)
	reCIFTail       = regexp.MustCompile(`\s*CIF[\s.:]*[A-Z]\d{8}[A-Z0-9].*$`)
	reNIFTail       = regexp.MustCompile(`\s*NIF[\s.:]*\d{8}[A-Z].*$`)
	rePhoneTail     = regexp.MustCompile(`\s*Tel[\s.:]*\d+.*$`)
	reEmailTail     = regexp.MustCompile(`\s*Email[\s.:]*.*$`)
	reWebTail       = regexp.MustCompile(`\s*www\..*$`)
	reWhitespaceRun = regexp.MustCompile(`\s{2,}`)

	reLegalForm    = regexp.MustCompile(`S\.?L\.?|S\.?A\.?|C\.?B\.?`)
	reLeadingUpper = regexp.MustCompile(`^[A-ZÁÉÍÓÚÑ]`)
	reLongDigitRun = regexp.MustCompile(`\d{8,}`)
	reMoneyLike    = regexp.MustCompile(`€|\d+[,.]\d{2}`)
)

const (
	minCompanyLen   = 5
	maxCompanyLen   = 60
	shortCompanyLen = 40
	topLineBonusMax = 5
)

// ExtractCompanyName runs the default extractor's company name extractor.
func ExtractCompanyName(text string) (string, bool) {
	return defaultExtractor.CompanyName(text)
}

// IsLikelyCompanyName applies the default plausibility check.
func IsLikelyCompanyName(name string) bool {
	return defaultExtractor.IsLikelyCompanyName(name)
}

// CompanyName searches the top of the document for the issuer name and
// returns the best scoring cleaned candidate.
func (e *Extractor) CompanyName(text string) (string, bool) {
	lines := nonEmptyLines(text)
	top := lines
	if len(top) > e.companyLines {
		top = top[:e.companyLines]
	}
	topText := strings.Join(top, "\n")

	var candidates []scoredCandidate
	for _, p := range e.companyPatterns {
		for _, match := range p.matches(topText) {
			name := cleanCompanyName(match)
			n := utf8.RuneCountInString(name)
			if n < minCompanyLen || n > maxCompanyLen {
				continue
			}
			candidates = append(candidates, scoredCandidate{value: name, score: e.scoreCompany(lines, name)})
		}
	}

	best, ok := pickBest(candidates)
	if !ok {
		return "", false
	}
	return best.value, true
}

func (e *Extractor) scoreCompany(lines []string, name string) int {
	score := 1
	if reLegalForm.MatchString(name) {
		score += 3
	}
	if reLeadingUpper.MatchString(name) {
		score += 2
	}
	// Candidates always come from the top lines, so one that cannot be
	// located after cleaning still counts as near the top.
	if lineOf(lines, name) < topLineBonusMax {
		score += 2
	}
	if !reLongDigitRun.MatchString(name) {
		score += 1
	}
	if !reMoneyLike.MatchString(name) {
		score += 1
	}
	if e.companySector.MatchString(name) {
		score += 2
	}
	return score
}

// IsLikelyCompanyName rejects names that look like addresses, amounts,
// dates, tax ids or web addresses. Long names need a legal form or sector
// word to pass.
func (e *Extractor) IsLikelyCompanyName(name string) bool {
	n := utf8.RuneCountInString(name)
	if n < minCompanyLen || n > maxCompanyLen {
		return false
	}
	if !reLeadingUpper.MatchString(name) {
		return false
	}
	if anyMatch(e.companyAnti, name) {
		return false
	}
	return anyMatch(e.companyIndicators, name) || n <= shortCompanyLen
}

func cleanCompanyName(name string) string {
	name = strings.TrimSpace(name)
	name = reCompanyLabel.ReplaceAllString(name, "")
	name = reCIFTail.ReplaceAllString(name, "")
	name = reNIFTail.ReplaceAllString(name, "")
	name = rePhoneTail.ReplaceAllString(name, "")
	name = reEmailTail.ReplaceAllString(name, "")
	name = reWebTail.ReplaceAllString(name, "")
	name = reWhitespaceRun.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// lineOf returns the index of the first line containing name, falling back
// to the first line of a name that spans several lines. It returns -1 when
// neither is found.
func lineOf(lines []string, name string) int {
	for i, l := range lines {
		if strings.Contains(l, name) {
			return i
		}
	}
	head, _, multi := strings.Cut(name, "\n")
	if !multi {
		return -1
	}
	for i, l := range lines {
		if strings.Contains(l, head) {
			return i
		}
	}
	return -1
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
