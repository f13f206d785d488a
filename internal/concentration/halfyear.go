package concentration

import "sort"

// HalfRow is a CBSA-level HHI averaged over the quarters of one half-year.
type HalfRow struct {
	CBSA string
	SOC4 string
	Year int
	Half int
	HHI  float64
}

// QuarterHalf returns the half-year (1 or 2) containing quarter q.
func QuarterHalf(q int) int {
	if q <= 2 {
		return 1
	}
	return 2
}

// ToHalfYear collapses quarterly rows into half-years with an equal-weight
// mean of the quarters present, so they join onto half-year panels.
func ToHalfYear(rows []CBSARow) []HalfRow {
	type key struct {
		cbsa, soc4 string
		year, half int
	}
	sums := make(map[key]float64)
	counts := make(map[key]int)
	for _, r := range rows {
		k := key{r.CBSA, r.SOC4, r.Year, QuarterHalf(r.Quarter)}
		sums[k] += r.HHI
		counts[k]++
	}

	out := make([]HalfRow, 0, len(sums))
	for k, s := range sums {
		out = append(out, HalfRow{CBSA: k.cbsa, SOC4: k.soc4, Year: k.year, Half: k.half, HHI: s / float64(counts[k])})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CBSA != b.CBSA {
			return a.CBSA < b.CBSA
		}
		if a.SOC4 != b.SOC4 {
			return a.SOC4 < b.SOC4
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Half < b.Half
	})
	return out
}
