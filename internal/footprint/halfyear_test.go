package footprint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEnumerate(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       []HalfYear
	}{
		{"spans the midyear boundary", date(2019, 5, 15), date(2019, 8, 10), []HalfYear{{2019, 1}, {2019, 2}}},
		{"single day", date(2020, 1, 1), date(2020, 1, 1), []HalfYear{{2020, 1}}},
		{"last day of H1", date(2019, 6, 30), date(2019, 6, 30), []HalfYear{{2019, 1}}},
		{"first day of H2", date(2019, 7, 1), date(2019, 7, 1), []HalfYear{{2019, 2}}},
		{"June 30 to July 1", date(2019, 6, 30), date(2019, 7, 1), []HalfYear{{2019, 1}, {2019, 2}}},
		{"across a year end", date(2019, 12, 31), date(2020, 1, 1), []HalfYear{{2019, 2}, {2020, 1}}},
		{"multi-year", date(2018, 3, 1), date(2020, 2, 1), []HalfYear{{2018, 1}, {2018, 2}, {2019, 1}, {2019, 2}, {2020, 1}}},
		{"end before start", date(2020, 1, 2), date(2020, 1, 1), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Enumerate(tt.start, tt.end))
		})
	}
}

func TestHalfYearBounds(t *testing.T) {
	h1 := HalfYear{Year: 2019, Half: 1}
	assert.Equal(t, date(2019, 1, 1), h1.Start())
	assert.Equal(t, date(2019, 6, 30), h1.End())

	h2 := HalfYear{Year: 2019, Half: 2}
	assert.Equal(t, date(2019, 7, 1), h2.Start())
	assert.Equal(t, date(2019, 12, 31), h2.End())

	assert.Equal(t, HalfYear{2020, 1}, h2.Next())
	assert.Equal(t, HalfYear{2018, 2}, h1.Prev())
	assert.Equal(t, h1, h2.Prev())
	assert.True(t, h1.Before(h2))
	assert.False(t, h2.Before(h1))
	assert.Equal(t, "2019H2", h2.String())
}

func TestHalfOf(t *testing.T) {
	assert.Equal(t, HalfYear{2019, 1}, HalfOf(date(2019, 6, 30)))
	assert.Equal(t, HalfYear{2019, 2}, HalfOf(date(2019, 7, 1)))
}
