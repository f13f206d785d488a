package footprint

import "sort"

// HalfKey identifies one firm in one half-year.
type HalfKey struct {
	Firm string
	HalfYear
}

// MetroKey identifies a metro by CBSA code and name.
type MetroKey struct {
	CBSA string
	Name string
}

func (m MetroKey) less(o MetroKey) bool {
	if m.CBSA != o.CBSA {
		return m.CBSA < o.CBSA
	}
	return m.Name < o.Name
}

// Counter counts spells per metro for each firm-half.
type Counter map[HalfKey]map[MetroKey]int

// Add increments the count of metro m in firm-half k.
func (c Counter) Add(k HalfKey, m MetroKey, n int) {
	inner, ok := c[k]
	if !ok {
		inner = make(map[MetroKey]int)
		c[k] = inner
	}
	inner[m] += n
}

// Keys returns the firm-halves sorted by firm, year and half.
func (c Counter) Keys() []HalfKey {
	keys := make([]HalfKey, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sortHalfKeys(keys)
	return keys
}

// Total returns the number of spells counted in firm-half k.
func (c Counter) Total(k HalfKey) int {
	var n int
	for _, v := range c[k] {
		n += v
	}
	return n
}

func sortHalfKeys(keys []HalfKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Firm != keys[j].Firm {
			return keys[i].Firm < keys[j].Firm
		}
		return keys[i].Before(keys[j].HalfYear)
	})
}

// sortedMetros returns the metros of counts in ascending (CBSA, name) order.
func sortedMetros(counts map[MetroKey]int) []MetroKey {
	keys := make([]MetroKey, 0, len(counts))
	for m := range counts {
		keys = append(keys, m)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}

// OccKey identifies one firm and 4-digit SOC occupation in one half-year.
type OccKey struct {
	Firm string
	SOC4 string
	HalfYear
}

func sortOccKeys(keys []OccKey) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Firm != b.Firm {
			return a.Firm < b.Firm
		}
		if a.SOC4 != b.SOC4 {
			return a.SOC4 < b.SOC4
		}
		return a.Before(b.HalfYear)
	})
}
