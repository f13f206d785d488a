package concentration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuarterHalf(t *testing.T) {
	assert.Equal(t, 1, QuarterHalf(1))
	assert.Equal(t, 1, QuarterHalf(2))
	assert.Equal(t, 2, QuarterHalf(3))
	assert.Equal(t, 2, QuarterHalf(4))
}

func TestToHalfYear(t *testing.T) {
	rows := []CBSARow{
		{CBSA: "12420", SOC4: "1110", Year: 2019, Quarter: 4, HHI: 0.5},
		{CBSA: "12420", SOC4: "1110", Year: 2019, Quarter: 1, HHI: 0.2},
		{CBSA: "12420", SOC4: "1110", Year: 2019, Quarter: 2, HHI: 0.4},
		{CBSA: "12420", SOC4: "1110", Year: 2019, Quarter: 3, HHI: 0.5},
		{CBSA: "12420", SOC4: "1110", Year: 2020, Quarter: 1, HHI: 0.1},
	}

	out := ToHalfYear(rows)
	require.Len(t, out, 3)

	assert.Equal(t, 2019, out[0].Year)
	assert.Equal(t, 1, out[0].Half)
	assert.InDelta(t, 0.3, out[0].HHI, 1e-12)

	assert.Equal(t, 2, out[1].Half)
	assert.InDelta(t, 0.5, out[1].HHI, 1e-12)

	assert.Equal(t, 2020, out[2].Year)
	assert.InDelta(t, 0.1, out[2].HHI, 1e-12)
}
