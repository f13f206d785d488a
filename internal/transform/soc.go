package transform

import "strings"

// SOC4 harmonizes a Standard Occupational Classification code to the 4-digit
// form used by the firm panels: hyphens are removed and the result is
// truncated to its first 4 characters. "11-1011" -> "1110".
// Codes shorter than 4 digits after de-hyphenation return "".
func SOC4(code string) string {
	code = strings.ReplaceAll(strings.TrimSpace(code), "-", "")
	if len(code) < 4 || !isDigits(code) {
		return ""
	}
	return code[:4]
}
