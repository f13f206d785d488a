package footprint

import (
	"sort"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/geopanel/internal/geo"
)

// TopMetro is the most frequented metro of one firm-half.
type TopMetro struct {
	Key   HalfKey
	Metro MetroKey
	Count int
}

// Top returns the metro with the highest count. Ties go to the lowest
// (CBSA, name), so the choice does not depend on map order.
func Top(counts map[MetroKey]int) (MetroKey, int) {
	var (
		best  MetroKey
		bestN int
		found bool
	)
	for m, n := range counts {
		if !found || n > bestN || (n == bestN && m.less(best)) {
			best, bestN, found = m, n, true
		}
	}
	return best, bestN
}

// TopMetros returns the most frequented metro of every firm-half, sorted.
func TopMetros(c Counter) []TopMetro {
	keys := c.Keys()
	out := make([]TopMetro, 0, len(keys))
	for _, k := range keys {
		m, n := Top(c[k])
		out = append(out, TopMetro{Key: k, Metro: m, Count: n})
	}
	return out
}

// CoreMetro is a metro meeting both presence floors within a firm-half.
type CoreMetro struct {
	Metro MetroKey
	Count int
	Share float64
}

// CoreMetros returns the metros with at least minSpells spells and at least
// minShare of the firm-half's spells, sorted by (CBSA, name).
func CoreMetros(counts map[MetroKey]int, minSpells int, minShare float64) []CoreMetro {
	var total int
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return nil
	}

	var out []CoreMetro
	for _, m := range sortedMetros(counts) {
		n := counts[m]
		share := float64(n) / float64(total)
		if n >= minSpells && share >= minShare {
			out = append(out, CoreMetro{Metro: m, Count: n, Share: share})
		}
	}
	return out
}

// Dispersion summarizes the core footprint of one firm-half.
type Dispersion struct {
	Key       HalfKey
	CoreCount int
	AvgDistKM float64
}

// Disperse returns the mean pairwise haversine distance among the core
// metros that have coordinates, or 0 with fewer than two such metros.
func Disperse(core []CoreMetro, metros geo.Lookup) float64 {
	points := make([]*geom.Point, 0, len(core))
	for _, c := range core {
		if m, ok := metros[c.Metro.Name]; ok && m.Point != nil {
			points = append(points, m.Point)
		}
	}
	return geo.MeanPairwiseKM(points)
}

// Shares returns each metro's share of the total count.
func Shares(counts map[MetroKey]int) map[MetroKey]float64 {
	var total int
	for _, n := range counts {
		total += n
	}
	out := make(map[MetroKey]float64, len(counts))
	if total == 0 {
		return out
	}
	for m, n := range counts {
		if n > 0 {
			out[m] = float64(n) / float64(total)
		}
	}
	return out
}

// HHI returns the sum of squared metro shares: 1 when all headcount is in
// one metro, approaching 0 as it spreads. It is 0 for an empty firm.
func HHI(counts map[MetroKey]int) float64 {
	shares := Shares(counts)
	var h float64
	for _, m := range sortedMetros(counts) {
		s := shares[m]
		h += s * s
	}
	return h
}

// FirmHHI returns the geographic HHI of every firm with nonzero baseline
// headcount.
func FirmHHI(baseline map[string]map[MetroKey]int) map[string]float64 {
	out := make(map[string]float64, len(baseline))
	for firm, counts := range baseline {
		if h := HHI(counts); h > 0 {
			out[firm] = h
		}
	}
	return out
}

func sortedFirms[V any](m map[string]V) []string {
	firms := make([]string, 0, len(m))
	for f := range m {
		firms = append(firms, f)
	}
	sort.Strings(firms)
	return firms
}
