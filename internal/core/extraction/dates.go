package extraction

import "sort"

// ExtractDates runs the default extractor's date extractor.
func ExtractDates(text string) []string {
	return defaultExtractor.Dates(text)
}

// Dates returns the distinct valid dates found in text as ascending
// YYYY-MM-DD strings. Tokens that do not form a plausible date are dropped.
func (e *Extractor) Dates(text string) []string {
	seen := make(map[string]struct{})
	var dates []string
	for _, p := range e.datePatterns {
		for _, m := range p.matches(text) {
			iso, ok := parseSpanishDate(m)
			if !ok {
				continue
			}
			if _, dup := seen[iso]; dup {
				continue
			}
			seen[iso] = struct{}{}
			dates = append(dates, iso)
		}
	}
	sort.Strings(dates)
	return dates
}
