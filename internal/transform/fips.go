// Package transform normalizes geographic and occupation codes and firm names
// so tables from different sources join on identical keys.
package transform

import "strings"

// NormalizeFIPSState normalizes a state FIPS code to 2 digits with zero-padding.
func NormalizeFIPSState(code string) string {
	code = trimNumeric(code)
	if code == "" {
		return ""
	}
	if len(code) == 1 {
		return "0" + code
	}
	return code
}

// NormalizeFIPSCounty normalizes a county FIPS code to 3 digits with zero-padding.
func NormalizeFIPSCounty(code string) string {
	code = trimNumeric(code)
	if code == "" {
		return ""
	}
	for len(code) < 3 {
		code = "0" + code
	}
	return code
}

// CombineFIPS combines state and county FIPS codes into a 5-digit code.
func CombineFIPS(state, county string) string {
	s := NormalizeFIPSState(state)
	c := NormalizeFIPSCounty(county)
	if s == "" || c == "" {
		return ""
	}
	return s + c
}

// NormalizeCountyFIPS zero-pads a full county FIPS code to 5 digits.
// "1001" -> "01001", "1001.0" -> "01001". Non-numeric or over-long codes
// return "".
func NormalizeCountyFIPS(code string) string {
	code = trimNumeric(code)
	if code == "" || len(code) > 5 || !isDigits(code) {
		return ""
	}
	for len(code) < 5 {
		code = "0" + code
	}
	return code
}

// NormalizeCBSA returns the 5-digit CBSA code, or "" when code is not a
// resolvable numeric CBSA code.
func NormalizeCBSA(code string) string {
	code = trimNumeric(code)
	if code == "" || len(code) > 5 || !isDigits(code) {
		return ""
	}
	for len(code) < 5 {
		code = "0" + code
	}
	if code == "00000" {
		return ""
	}
	return code
}

// trimNumeric trims whitespace and a trailing ".0" left by float-typed exports.
func trimNumeric(code string) string {
	code = strings.TrimSpace(code)
	return strings.TrimSuffix(code, ".0")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
