// Package crosswalk maps counties to commuting zones and CBSAs, producing a
// one-to-one largest-share CZ -> CBSA mapping and a population-weighted
// many-to-many mapping.
package crosswalk

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoCBSA is returned when no commuting zone overlaps any CBSA.
var ErrNoCBSA = eris.New("no commuting zone maps to a CBSA")

// CountyCZ maps a 5-digit county FIPS code to its commuting zone.
type CountyCZ map[string]string

// CountyCBSA maps a 5-digit county FIPS code to its CBSA code. Counties
// outside every CBSA are absent.
type CountyCBSA map[string]string

// CountyPopulation maps a 5-digit county FIPS code to its population.
type CountyPopulation map[string]float64

// Assignment is the dominant CBSA of one commuting zone.
type Assignment struct {
	CZ         string
	CBSA       string
	Population float64
}

// Share is one (CZ, CBSA) cell of the fractional mapping. Weights of a CZ sum to 1.
type Share struct {
	CZ         string
	CBSA       string
	Population float64
	Weight     float64
}

// Largest maps a commuting zone to its dominant CBSA.
type Largest map[string]Assignment

// Fractional lists population-weighted CZ -> CBSA shares sorted by (CZ, CBSA).
type Fractional []Share

// Stats counts counties and commuting zones through the join.
type Stats struct {
	Counties       int // counties in the county -> CZ table
	Joined         int // counties with both a CZ and a CBSA
	NoCBSA         int // counties outside every CBSA
	NoPopulation   int // joined counties absent from the population table (treated as 0)
	CZs            int // distinct CZs in the county -> CZ table
	RuralCZs       int // CZs with no CBSA-bearing county, dropped
	ZeroPopCZs     int // CZs with zero joined population, dropped from the fractional mapping
	LargestRows    int
	FractionalRows int
}

// Build joins the three county tables on FIPS code and derives both mappings.
func Build(countyCZ CountyCZ, countyCBSA CountyCBSA, pop CountyPopulation) (Largest, Fractional, Stats, error) {
	var stats Stats
	log := zap.L().With(zap.String("component", "crosswalk"))

	counties := make([]string, 0, len(countyCZ))
	for c := range countyCZ {
		counties = append(counties, c)
	}
	sort.Strings(counties)
	stats.Counties = len(counties)

	czs := make(map[string]bool)
	cells := make(map[string]map[string]float64) // cz -> cbsa -> population
	for _, county := range counties {
		cz := countyCZ[county]
		czs[cz] = true

		cbsa, ok := countyCBSA[county]
		if !ok || cbsa == "" {
			stats.NoCBSA++
			continue
		}

		p, ok := pop[county]
		if !ok {
			stats.NoPopulation++
			p = 0
		}

		if cells[cz] == nil {
			cells[cz] = make(map[string]float64)
		}
		cells[cz][cbsa] += p
		stats.Joined++
	}
	stats.CZs = len(czs)
	stats.RuralCZs = len(czs) - len(cells)

	log.Info("crosswalk: county join",
		zap.Int("counties_before", stats.Counties),
		zap.Int("counties_after", stats.Joined),
		zap.Int("no_cbsa", stats.NoCBSA),
		zap.Int("no_population", stats.NoPopulation),
	)

	czKeys := make([]string, 0, len(cells))
	for cz := range cells {
		czKeys = append(czKeys, cz)
	}
	sort.Strings(czKeys)

	largest := make(Largest, len(czKeys))
	var fractional Fractional
	for _, cz := range czKeys {
		byCBSA := cells[cz]
		cbsas := make([]string, 0, len(byCBSA))
		for cbsa := range byCBSA {
			cbsas = append(cbsas, cbsa)
		}
		sort.Strings(cbsas)

		// Ties go to the lowest CBSA code because cbsas is sorted and only a
		// strictly larger population replaces the current pick.
		best := Assignment{CZ: cz, CBSA: cbsas[0], Population: byCBSA[cbsas[0]]}
		var total float64
		for _, cbsa := range cbsas {
			p := byCBSA[cbsa]
			total += p
			if p > best.Population {
				best = Assignment{CZ: cz, CBSA: cbsa, Population: p}
			}
		}
		largest[cz] = best

		if total <= 0 {
			stats.ZeroPopCZs++
			continue
		}
		for _, cbsa := range cbsas {
			p := byCBSA[cbsa]
			fractional = append(fractional, Share{CZ: cz, CBSA: cbsa, Population: p, Weight: p / total})
		}
	}
	stats.LargestRows = len(largest)
	stats.FractionalRows = len(fractional)

	log.Info("crosswalk: mappings built",
		zap.Int("czs", stats.CZs),
		zap.Int("rural_czs_dropped", stats.RuralCZs),
		zap.Int("zero_pop_czs_dropped", stats.ZeroPopCZs),
		zap.Int("largest_rows", stats.LargestRows),
		zap.Int("fractional_rows", stats.FractionalRows),
	)

	if len(largest) == 0 {
		return nil, nil, stats, ErrNoCBSA
	}
	return largest, fractional, stats, nil
}

// CBSAs returns the distinct CBSA codes of the largest mapping, sorted.
func (l Largest) CBSAs() []string {
	seen := make(map[string]bool, len(l))
	for _, a := range l {
		seen[a.CBSA] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ByCZ groups fractional shares by commuting zone.
func (f Fractional) ByCZ() map[string][]Share {
	out := make(map[string][]Share)
	for _, s := range f {
		out[s.CZ] = append(out[s.CZ], s)
	}
	return out
}
