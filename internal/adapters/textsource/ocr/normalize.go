package ocr

import (
	"regexp"
	"strings"
)

var (
	reBoxDrawing = regexp.MustCompile(`[\x{2500}-\x{257F}]+`)
	reSpaceRun   = regexp.MustCompile(`[ \t\x{00A0}]+`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
	lineEndings  = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n")
)

// Normalize cleans raw tesseract output: unified line endings, table
// borders removed, runs of spaces collapsed, lines trimmed and at most one
// blank line between paragraphs.
func Normalize(raw string) string {
	text := lineEndings.Replace(raw)
	text = reBoxDrawing.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(reSpaceRun.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")

	text = reBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
