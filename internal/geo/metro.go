package geo

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/geopanel/internal/tabular"
	"github.com/sells-group/geopanel/internal/transform"
)

// Metro enrichment lookup columns.
const (
	ColMSA      = "msa"
	ColCBSACode = "cbsacode"
	ColLat      = "lat"
	ColLon      = "lon"
)

// ErrNoMetros is returned when no metro in the lookup carries a usable CBSA code.
var ErrNoMetros = eris.New("no metros with a resolvable CBSA code")

// Metro is one metropolitan area with its CBSA code and representative point.
type Metro struct {
	Name  string
	CBSA  string
	Point *geom.Point
}

// Lookup maps a metro name, exactly as it appears in spell files, to its record.
type Lookup map[string]Metro

// LoadStats counts lookup rows by outcome.
type LoadStats struct {
	Rows       int
	Loaded     int
	NoCBSA     int
	BadCoords  int
	Duplicates int
}

// LoadMetros reads the metro enrichment CSV (msa, cbsacode, lat, lon).
// Metros without a numeric CBSA code are excluded and counted; spells in
// those metros are skipped downstream. Metros with unusable coordinates are
// kept without a point, so they count toward presence but not distance.
func LoadMetros(path string) (Lookup, LoadStats, error) {
	var stats LoadStats

	header, rows, err := tabular.ReadCSVFile(path, tabular.CSVOptions{})
	if err != nil {
		return nil, stats, eris.Wrap(err, "geo: read metro lookup")
	}
	if err := header.Require("metro lookup", ColMSA, ColCBSACode, ColLat, ColLon); err != nil {
		return nil, stats, err
	}

	lookup := make(Lookup, len(rows))
	for _, rec := range rows {
		stats.Rows++
		name := header.Get(rec, ColMSA)
		cbsa := transform.NormalizeCBSA(header.Get(rec, ColCBSACode))
		if name == "" || cbsa == "" {
			stats.NoCBSA++
			continue
		}
		if _, ok := lookup[name]; ok {
			stats.Duplicates++
			continue
		}

		m := Metro{Name: name, CBSA: cbsa}
		lat, okLat := tabular.ParseFloat(header.Get(rec, ColLat))
		lon, okLon := tabular.ParseFloat(header.Get(rec, ColLon))
		if okLat && okLon && ValidCoords(lat, lon) {
			m.Point = NewPoint(lat, lon)
		} else {
			stats.BadCoords++
		}
		lookup[name] = m
		stats.Loaded++
	}

	zap.L().Info("geo: metro lookup loaded",
		zap.String("path", path),
		zap.Int("rows", stats.Rows),
		zap.Int("loaded", stats.Loaded),
		zap.Int("no_cbsa", stats.NoCBSA),
		zap.Int("bad_coords", stats.BadCoords),
		zap.Int("duplicates", stats.Duplicates),
	)

	if len(lookup) == 0 {
		return nil, stats, eris.Wrapf(ErrNoMetros, "geo: %s", path)
	}
	return lookup, stats, nil
}

// WriteMetros writes metros as a lookup CSV sorted by CBSA code then name.
func WriteMetros(path string, metros []Metro) error {
	sorted := make([]Metro, len(metros))
	copy(sorted, metros)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CBSA != sorted[j].CBSA {
			return sorted[i].CBSA < sorted[j].CBSA
		}
		return sorted[i].Name < sorted[j].Name
	})

	rows := make([][]string, 0, len(sorted))
	for _, m := range sorted {
		lat, lon := "", ""
		if m.Point != nil {
			lat, lon = tabular.FormatFloat(Lat(m.Point)), tabular.FormatFloat(Lon(m.Point))
		}
		rows = append(rows, []string{m.Name, m.CBSA, lat, lon})
	}
	return tabular.WriteCSV(path, []string{ColMSA, ColCBSACode, ColLat, ColLon}, rows)
}
