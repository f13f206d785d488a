package tabular

import (
	"math"
	"strconv"
	"strings"
)

// missingTokens are values the statistics tooling and Census files use for "no value".
var missingTokens = map[string]bool{
	"":     true,
	".":    true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
}

// IsMissing reports whether s is an empty or missing-value token.
func IsMissing(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

// ParseFloat parses s as a finite float64. The second result is false for
// missing tokens, unparseable values and infinities.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if IsMissing(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ParseFloatOr parses s as a float64, returning def if parsing fails.
func ParseFloatOr(s string, def float64) float64 {
	if v, ok := ParseFloat(s); ok {
		return v
	}
	return def
}

// ParseInt parses s as an int. Values such as "2019.0" written by
// spreadsheet exports are accepted when they are integral.
func ParseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if IsMissing(s) {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// FormatFloat renders v in the shortest form that round-trips, or "" for
// NaN and infinities so downstream tools read a missing value.
func FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatInt renders an int.
func FormatInt(v int) string { return strconv.Itoa(v) }
