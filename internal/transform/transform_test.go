package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFIPSState(t *testing.T) {
	assert.Equal(t, "06", NormalizeFIPSState("6"))
	assert.Equal(t, "48", NormalizeFIPSState("48"))
	assert.Equal(t, "08", NormalizeFIPSState("8.0"))
	assert.Equal(t, "", NormalizeFIPSState(""))
}

func TestNormalizeFIPSCounty(t *testing.T) {
	assert.Equal(t, "001", NormalizeFIPSCounty("1"))
	assert.Equal(t, "037", NormalizeFIPSCounty("37"))
	assert.Equal(t, "453", NormalizeFIPSCounty("453"))
	assert.Equal(t, "", NormalizeFIPSCounty(""))
}

func TestCombineFIPS(t *testing.T) {
	assert.Equal(t, "48453", CombineFIPS("48", "453"))
	assert.Equal(t, "01001", CombineFIPS("1", "1"))
	assert.Equal(t, "", CombineFIPS("", "1"))
	assert.Equal(t, "", CombineFIPS("1", ""))
}

func TestNormalizeCountyFIPS(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"01001", "01001"},
		{"1001", "01001"},
		{"1001.0", "01001"},
		{" 48453 ", "48453"},
		{"", ""},
		{"abc", ""},
		{"123456", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCountyFIPS(tt.input))
		})
	}
}

func TestNormalizeCBSA(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"12420", "12420"},
		{"12420.0", "12420"},
		{"1234", "01234"},
		{"", ""},
		{"NA", ""},
		{"0", ""},
		{"C1242", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCBSA(tt.input))
		})
	}
}

func TestSOC4(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"11-1011", "1110"},
		{"15-1252", "1512"},
		{"151252", "1512"},
		{"1512", "1512"},
		{"11-", ""},
		{"", ""},
		{"ab-cdef", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SOC4(tt.input))
		})
	}
}

// The CZ-level concentration file carries hyphenated 6-digit SOC codes while
// the firm x occupation panel is keyed on 4-digit codes. Without the
// harmonization the join silently matches nothing.
func TestSOC4MatchesPanelFormat(t *testing.T) {
	concentrationCode := "15-1252" // Software Developers, as published
	panelCode := "1512"            // Computer Occupations, as used in firm panels

	assert.NotEqual(t, panelCode, concentrationCode)
	assert.Equal(t, panelCode, SOC4(concentrationCode))
	assert.Len(t, SOC4(concentrationCode), len(panelCode))
}

func TestFirmKey(t *testing.T) {
	assert.Equal(t, FirmKey("Acme Corp"), FirmKey("  ACME   corp "))
	assert.Equal(t, FirmKey("Caf\u00e9"), FirmKey("Cafe\u0301"), "composed and decomposed forms join")
	assert.NotEqual(t, FirmKey("Acme"), FirmKey("Acme Corp"))
}
