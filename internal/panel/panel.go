// Package panel assembles firm x half-year and firm x occupation x half-year
// analysis panels from the footprint, concentration and attribute tables.
package panel

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geopanel/internal/footprint"
	"github.com/sells-group/geopanel/internal/transform"
)

// ErrEmptyPanel is returned when no row survives the required-variable filter.
var ErrEmptyPanel = eris.New("no panel rows survived the required-variable filter")

// Level selects the panel unit.
type Level string

const (
	LevelFirm Level = "firm"
	LevelOcc  Level = "occ"
)

// ParseLevel validates a level name.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelFirm, LevelOcc:
		return Level(s), nil
	default:
		return "", eris.Errorf("panel: unknown level %q (want firm or occ)", s)
	}
}

// OutputName returns the panel file and table name for level, without extension.
func (l Level) OutputName() string {
	if l == LevelOcc {
		return "panel_firm_occ_half"
	}
	return "panel_firm_half"
}

// Options holds the treatment timing and derived-variable thresholds.
type Options struct {
	Level         Level
	StartupMaxAge int
	PostYear      int
	PostHalf      int
	WinsorLower   float64
	WinsorUpper   float64
}

// Row is one panel observation. Missing numeric values are NaN.
type Row struct {
	Firm string
	SOC4 string
	Half footprint.HalfYear
	CBSA string

	FirmID int
	OccID  int

	Headcount float64
	GrowthRaw float64
	Growth    float64 // winsorized

	Founded      float64
	Age          float64
	Startup      float64
	Teleworkable float64
	Remote       float64
	Post         float64

	RemoteXPost        float64
	StartupXPost       float64
	RemoteXStartup     float64
	RemoteXStartupPost float64
	TeleworkableXPost  float64

	HHIMSA    float64
	CoreCount float64
	AvgDistKM float64
	HHI       float64 // occupational concentration in the firm's top CBSA
}

// Stats counts rows through each join and filter.
type Stats struct {
	Headcount      int
	WithLag        int
	WithAttributes int
	WithTopCBSA    int
	WithFirmHHI    int
	WithCBSAHHI    int
	Dropped        int
	Output         int
	Firms          int
	Occupations    int
	WinsorLow      float64
	WinsorHigh     float64
}

// Build joins in onto the headcount panel, derives the treatment variables,
// winsorizes growth, drops rows missing required variables and assigns
// dense IDs keyed on transform.FirmKey. Rows are sorted by firm ID,
// occupation and half.
func Build(in *Inputs, opts Options) ([]Row, Stats, error) {
	log := zap.L().With(zap.String("component", "panel"), zap.String("level", string(opts.Level)))
	stats := Stats{Headcount: len(in.Headcount)}
	treatment := footprint.HalfYear{Year: opts.PostYear, Half: opts.PostHalf}

	lags := make(map[lagKey]float64, len(in.Headcount))
	for _, hc := range in.Headcount {
		lags[lagKey{firm: transform.FirmKey(hc.Firm), soc4: hc.SOC4, half: hc.Half}] += hc.Count
	}

	rows := make([]Row, 0, len(in.Headcount))
	for _, hc := range in.Headcount {
		key := transform.FirmKey(hc.Firm)
		r := Row{
			Firm:         hc.Firm,
			SOC4:         hc.SOC4,
			Half:         hc.Half,
			Headcount:    hc.Count,
			GrowthRaw:    nan,
			Founded:      nan,
			Age:          nan,
			Startup:      nan,
			Teleworkable: nan,
			Remote:       nan,
			HHIMSA:       nan,
			CoreCount:    nan,
			AvgDistKM:    nan,
			HHI:          nan,
		}

		if prev, ok := lags[lagKey{firm: key, soc4: hc.SOC4, half: hc.Half.Prev()}]; ok {
			r.GrowthRaw = Growth(hc.Count, prev)
			stats.WithLag++
		}

		if a, ok := in.Attributes[key]; ok {
			stats.WithAttributes++
			r.Founded = a.Founded
			r.Teleworkable = a.Teleworkable
			r.Remote = a.Flexibility
			if !math.IsNaN(a.Founded) {
				r.Age = float64(hc.Half.Year) - a.Founded
				r.Startup = boolFloat(r.Age <= float64(opts.StartupMaxAge))
			}
		}

		r.Post = boolFloat(IsPost(hc.Half, treatment))
		r.RemoteXPost = r.Remote * r.Post
		r.StartupXPost = r.Startup * r.Post
		r.RemoteXStartup = r.Remote * r.Startup
		r.RemoteXStartupPost = r.Remote * r.Startup * r.Post
		r.TeleworkableXPost = r.Teleworkable * r.Post

		if cbsa, ok := in.TopCBSA[halfKey{firm: key, half: hc.Half}]; ok {
			r.CBSA = cbsa
			stats.WithTopCBSA++
		}
		if h, ok := in.FirmHHI[key]; ok {
			r.HHIMSA = h
			stats.WithFirmHHI++
		}
		if d, ok := in.Dispersion[key]; ok {
			r.CoreCount = d.CoreCount
			r.AvgDistKM = d.AvgDistKM
		}
		if opts.Level == LevelOcc && r.CBSA != "" {
			if h, ok := in.CBSAHHI[cbsaKey{cbsa: r.CBSA, soc4: r.SOC4, half: hc.Half}]; ok {
				r.HHI = h
				stats.WithCBSAHHI++
			}
		}
		rows = append(rows, r)
	}

	log.Info("panel: joins",
		zap.Int("rows_before", stats.Headcount),
		zap.Int("with_lag", stats.WithLag),
		zap.Int("with_attributes", stats.WithAttributes),
		zap.Int("with_top_cbsa", stats.WithTopCBSA),
		zap.Int("with_firm_hhi", stats.WithFirmHHI),
		zap.Int("with_cbsa_hhi", stats.WithCBSAHHI),
	)

	growth := make([]float64, len(rows))
	for i, r := range rows {
		growth[i] = r.GrowthRaw
	}
	stats.WinsorLow, stats.WinsorHigh = Winsorize(growth, opts.WinsorLower, opts.WinsorUpper)
	for i := range rows {
		rows[i].Growth = growth[i]
	}

	kept := rows[:0]
	for _, r := range rows {
		if missingRequired(r, opts.Level) {
			stats.Dropped++
			continue
		}
		kept = append(kept, r)
	}
	rows = kept

	firms := make([]string, len(rows))
	occs := make([]string, 0, len(rows))
	for i, r := range rows {
		firms[i] = transform.FirmKey(r.Firm)
		if r.SOC4 != "" {
			occs = append(occs, r.SOC4)
		}
	}
	firmIDs, occIDs := Factorize(firms), Factorize(occs)
	for i := range rows {
		rows[i].FirmID = firmIDs[transform.FirmKey(rows[i].Firm)]
		rows[i].OccID = occIDs[rows[i].SOC4]
	}
	sortRows(rows)

	stats.Output = len(rows)
	stats.Firms = len(firmIDs)
	stats.Occupations = len(occIDs)
	log.Info("panel: required-variable filter",
		zap.Int("rows_before", stats.Headcount),
		zap.Int("dropped", stats.Dropped),
		zap.Int("rows_after", stats.Output),
		zap.Int("firms", stats.Firms),
		zap.Int("occupations", stats.Occupations),
	)

	if len(rows) == 0 {
		return nil, stats, ErrEmptyPanel
	}
	return rows, stats, nil
}

type lagKey struct {
	firm string
	soc4 string
	half footprint.HalfYear
}

// missingRequired reports whether r lacks a variable the estimation needs.
func missingRequired(r Row, level Level) bool {
	required := []float64{r.Growth, r.Startup, r.Remote, r.Post}
	if level == LevelOcc {
		required = append(required, r.HHI)
	}
	for _, v := range required {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.FirmID != b.FirmID {
			return a.FirmID < b.FirmID
		}
		if a.SOC4 != b.SOC4 {
			return a.SOC4 < b.SOC4
		}
		if a.Half != b.Half {
			return a.Half.Before(b.Half)
		}
		return a.Firm < b.Firm
	})
}
