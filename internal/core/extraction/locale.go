package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reNumberNoise = regexp.MustCompile(`[^\d,.]`)
	reDateNoise   = regexp.MustCompile(`[^\d/\-]`)
	reDateSep     = regexp.MustCompile(`[-/]`)
)

// Accepted year window for parsed dates.
const (
	minYear = 2000
	maxYear = 2030
)

// ParseSpanishNumber parses an amount written with Spanish separators.
// With both separators present the comma is decimal and dots group
// thousands; a lone comma is decimal; a lone dot is decimal only when exactly
// two digits follow it. Malformed tokens yield zero.
func ParseSpanishNumber(token string) decimal.Decimal {
	cleaned := reNumberNoise.ReplaceAllString(token, "")
	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	var normalized string
	switch {
	case hasComma && hasDot:
		parts := strings.Split(cleaned, ",")
		if len(parts) != 2 || strings.Contains(parts[1], ".") {
			return decimal.Zero
		}
		normalized = joinDecimal(strings.ReplaceAll(parts[0], ".", ""), parts[1])
	case hasComma:
		parts := strings.Split(cleaned, ",")
		if len(parts) != 2 {
			return decimal.Zero
		}
		normalized = joinDecimal(parts[0], parts[1])
	case hasDot:
		parts := strings.Split(cleaned, ".")
		if len(parts) == 2 && len(parts[1]) == 2 {
			normalized = joinDecimal(parts[0], parts[1])
		} else {
			normalized = strings.ReplaceAll(cleaned, ".", "")
		}
	default:
		normalized = cleaned
	}

	if normalized == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func joinDecimal(integer, fraction string) string {
	if integer == "" {
		integer = "0"
	}
	if fraction == "" {
		return integer
	}
	return integer + "." + fraction
}

// parseSpanishDate reads a day-month-year token and renders it as
// YYYY-MM-DD. Two digit years pivot at 50.
func parseSpanishDate(token string) (string, bool) {
	cleaned := reDateNoise.ReplaceAllString(token, "")
	parts := reDateSep.Split(cleaned, -1)
	if len(parts) != 3 {
		return "", false
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", false
	}

	if year < 100 {
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
	}

	if day < 1 || day > 31 || month < 1 || month > 12 || year < minYear || year > maxYear {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}
