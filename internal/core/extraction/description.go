package extraction

import "strings"

// ExtractDescription runs the default extractor's description extractor.
func ExtractDescription(text string) (string, bool) {
	return defaultExtractor.Description(text)
}

// Description returns the rest of the line after the first recognised
// concept label. Label families are tried in order and the first hit wins,
// even when only whitespace follows the label.
func (e *Extractor) Description(text string) (string, bool) {
	for _, p := range e.descriptionPatterns {
		if groups := p.groups(text); len(groups) > 0 {
			d := strings.TrimSpace(groups[0])
			return d, d != ""
		}
	}
	return "", false
}
