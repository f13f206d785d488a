// Package concentration re-aggregates commuting-zone labor-market HHI to the
// CBSA level through the county crosswalk.
package concentration

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geopanel/internal/crosswalk"
)

// ErrEmptyResult is returned when no CZ row matches the crosswalk.
var ErrEmptyResult = eris.New("no concentration rows matched the crosswalk")

// Mode selects the CZ -> CBSA mapping.
type Mode string

const (
	// ModeLargest assigns each CZ wholly to its dominant CBSA and averages
	// CZs sharing a CBSA with equal weight.
	ModeLargest Mode = "largest"
	// ModeWeighted spreads each CZ over its CBSAs by population share.
	ModeWeighted Mode = "weighted"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLargest, ModeWeighted:
		return Mode(s), nil
	default:
		return "", eris.Errorf("concentration: unknown mode %q (want largest or weighted)", s)
	}
}

// CZRow is one commuting-zone HHI observation. SOC4 is already harmonized.
type CZRow struct {
	CZ      string
	SOC4    string
	Year    int
	Quarter int
	HHI     float64
}

// CBSARow is one CBSA-level HHI observation.
type CBSARow struct {
	CBSA    string
	SOC4    string
	Year    int
	Quarter int
	HHI     float64
}

// Stats counts rows through the crosswalk join.
type Stats struct {
	InputRows int
	Matched   int // CZ rows with at least one CBSA
	Unmatched int // CZ rows whose CZ is absent from the mapping
	Output    int
}

type cellKey struct {
	cbsa    string
	soc4    string
	year    int
	quarter int
}

type cell struct {
	weighted float64
	weight   float64
}

// Aggregate maps CZ rows onto CBSAs. In ModeLargest only largest is used;
// in ModeWeighted only fractional is used. Output is sorted by
// (CBSA, SOC4, year, quarter).
func Aggregate(rows []CZRow, largest crosswalk.Largest, fractional crosswalk.Fractional, mode Mode) ([]CBSARow, Stats, error) {
	stats := Stats{InputRows: len(rows)}
	cells := make(map[cellKey]*cell)

	add := func(cbsa string, r CZRow, w float64) {
		k := cellKey{cbsa: cbsa, soc4: r.SOC4, year: r.Year, quarter: r.Quarter}
		c, ok := cells[k]
		if !ok {
			c = &cell{}
			cells[k] = c
		}
		c.weighted += r.HHI * w
		c.weight += w
	}

	switch mode {
	case ModeLargest:
		for _, r := range rows {
			a, ok := largest[r.CZ]
			if !ok {
				stats.Unmatched++
				continue
			}
			stats.Matched++
			add(a.CBSA, r, 1)
		}
	case ModeWeighted:
		byCZ := fractional.ByCZ()
		for _, r := range rows {
			shares, ok := byCZ[r.CZ]
			if !ok {
				stats.Unmatched++
				continue
			}
			stats.Matched++
			for _, s := range shares {
				add(s.CBSA, r, s.Weight)
			}
		}
	default:
		return nil, stats, eris.Errorf("concentration: unknown mode %q", mode)
	}

	out := make([]CBSARow, 0, len(cells))
	for k, c := range cells {
		if c.weight <= 0 {
			continue
		}
		out = append(out, CBSARow{CBSA: k.cbsa, SOC4: k.soc4, Year: k.year, Quarter: k.quarter, HHI: c.weighted / c.weight})
	}
	sortCBSARows(out)
	stats.Output = len(out)

	zap.L().Info("concentration: crosswalk join",
		zap.String("mode", string(mode)),
		zap.Int("rows_before", stats.InputRows),
		zap.Int("rows_matched", stats.Matched),
		zap.Int("rows_unmatched", stats.Unmatched),
		zap.Int("rows_after", stats.Output),
	)

	if len(out) == 0 {
		return nil, stats, ErrEmptyResult
	}
	return out, stats, nil
}

func sortCBSARows(rows []CBSARow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.CBSA != b.CBSA {
			return a.CBSA < b.CBSA
		}
		if a.SOC4 != b.SOC4 {
			return a.SOC4 < b.SOC4
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Quarter < b.Quarter
	})
}
