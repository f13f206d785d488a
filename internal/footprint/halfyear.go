package footprint

import (
	"fmt"
	"time"
)

// HalfYear identifies a six-month period: half 1 is Jan 1 - Jun 30, half 2
// is Jul 1 - Dec 31.
type HalfYear struct {
	Year int
	Half int
}

// HalfOf returns the half-year containing t.
func HalfOf(t time.Time) HalfYear {
	h := 1
	if t.Month() >= time.July {
		h = 2
	}
	return HalfYear{Year: t.Year(), Half: h}
}

// Start returns the first day of the half-year.
func (h HalfYear) Start() time.Time {
	month := time.January
	if h.Half == 2 {
		month = time.July
	}
	return time.Date(h.Year, month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the half-year.
func (h HalfYear) End() time.Time {
	return h.Next().Start().AddDate(0, 0, -1)
}

// Next returns the following half-year.
func (h HalfYear) Next() HalfYear {
	if h.Half == 1 {
		return HalfYear{Year: h.Year, Half: 2}
	}
	return HalfYear{Year: h.Year + 1, Half: 1}
}

// Prev returns the preceding half-year.
func (h HalfYear) Prev() HalfYear {
	if h.Half == 2 {
		return HalfYear{Year: h.Year, Half: 1}
	}
	return HalfYear{Year: h.Year - 1, Half: 2}
}

// Before reports whether h precedes o.
func (h HalfYear) Before(o HalfYear) bool {
	if h.Year != o.Year {
		return h.Year < o.Year
	}
	return h.Half < o.Half
}

func (h HalfYear) String() string {
	return fmt.Sprintf("%dH%d", h.Year, h.Half)
}

// Enumerate returns every half-year overlapped by the closed interval
// [start, end], in order. It returns nil when end precedes start.
func Enumerate(start, end time.Time) []HalfYear {
	if end.Before(start) {
		return nil
	}
	last := HalfOf(end)
	var out []HalfYear
	for h := HalfOf(start); !last.Before(h); h = h.Next() {
		out = append(out, h)
	}
	return out
}
