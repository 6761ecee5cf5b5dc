package security

import (
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Sensitive header names that should be redacted.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
}

const (
	redactedValue = "[REDACTED]"
	maskedValue   = "***"
)

var (
	// Spanish CIF (letter + 7 digits + control) and NIF/NIE identifiers.
	reTaxID = regexp.MustCompile(`\b(?:[ABCDEFGHJKLMNPQRSUVW]\d{7}[0-9A-J]|[XYZ]?\d{7,8}[A-Z])\b`)
	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	reIBAN  = regexp.MustCompile(`\bES\d{2}(?:\s?\d{4}){5}\b`)
)

// SanitizeHeaders removes sensitive headers from an HTTP header map.
// Returns a new map with sensitive values redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))

	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
		} else {
			sanitized[key] = strings.Join(values, ", ")
		}
	}

	return sanitized
}

// MaskSensitiveText replaces tax identifiers, e-mail addresses and Spanish
// IBANs with a fixed mask so extracted text can be retained for auditing.
func MaskSensitiveText(text string) string {
	text = reIBAN.ReplaceAllString(text, maskedValue)
	text = reEmail.ReplaceAllString(text, maskedValue)
	return reTaxID.ReplaceAllString(text, maskedValue)
}

// Truncate shortens s to at most maxRunes runes without splitting a
// multi-byte character. A non-positive maxRunes returns s unchanged.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i] + "…"
		}
		n++
	}
	return s
}

// Excerpt masks text and truncates it for storage.
func Excerpt(text string, maxRunes int) string {
	return Truncate(MaskSensitiveText(text), maxRunes)
}
