package panel

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geopanel/internal/concentration"
	"github.com/sells-group/geopanel/internal/footprint"
	"github.com/sells-group/geopanel/internal/tabular"
	"github.com/sells-group/geopanel/internal/transform"
)

// AttributesTable is the store table holding static firm attributes.
const AttributesTable = "firm_attributes"

// Headcount is one firm (or firm x occupation) half-year observation.
type Headcount struct {
	Firm  string
	SOC4  string
	Half  footprint.HalfYear
	Count float64
}

// Attributes are static characteristics of one firm. Missing values are NaN.
type Attributes struct {
	Firm         string
	Founded      float64
	Teleworkable float64
	Flexibility  float64
}

// Dispersion is a firm's core-footprint summary averaged over the halves of
// the dispersion year.
type Dispersion struct {
	CoreCount float64
	AvgDistKM float64
}

type cbsaKey struct {
	cbsa string
	soc4 string
	half footprint.HalfYear
}

type halfKey struct {
	firm string
	half footprint.HalfYear
}

// Inputs are the tables joined onto the headcount panel. Maps are keyed by
// transform.FirmKey of the company name.
type Inputs struct {
	Headcount  []Headcount
	Attributes map[string]Attributes
	TopCBSA    map[halfKey]string
	Dispersion map[string]Dispersion
	FirmHHI    map[string]float64
	CBSAHHI    map[cbsaKey]float64
}

// NewInputs returns Inputs with empty lookups.
func NewInputs() *Inputs {
	return &Inputs{
		Attributes: make(map[string]Attributes),
		TopCBSA:    make(map[halfKey]string),
		Dispersion: make(map[string]Dispersion),
		FirmHHI:    make(map[string]float64),
		CBSAHHI:    make(map[cbsaKey]float64),
	}
}

func parseHalf(h tabular.Header, rec []string) (footprint.HalfYear, bool) {
	year, okY := tabular.ParseInt(h.Get(rec, "year"))
	half, okH := tabular.ParseInt(h.Get(rec, "half"))
	if !okY || !okH || (half != 1 && half != 2) {
		return footprint.HalfYear{}, false
	}
	return footprint.HalfYear{Year: year, Half: half}, true
}

// ParseHeadcount reads headcount rows. With occ set the soc4 column is required.
func ParseHeadcount(h tabular.Header, rows [][]string, occ bool) ([]Headcount, error) {
	cols := []string{"companyname", "year", "half", "headcount"}
	if occ {
		cols = append(cols, "soc4")
	}
	if err := h.Require("headcount", cols...); err != nil {
		return nil, err
	}

	out := make([]Headcount, 0, len(rows))
	for _, rec := range rows {
		half, ok := parseHalf(h, rec)
		n, okN := tabular.ParseFloat(h.Get(rec, "headcount"))
		firm := h.Get(rec, "companyname")
		if !ok || !okN || firm == "" {
			continue
		}
		hc := Headcount{Firm: firm, Half: half, Count: n}
		if occ {
			hc.SOC4 = transform.SOC4(h.Get(rec, "soc4"))
			if hc.SOC4 == "" {
				continue
			}
		}
		out = append(out, hc)
	}
	return out, nil
}

// ParseAttributes reads firm attributes (companyname, founded, teleworkable,
// flexibility_score). Unparseable values become NaN.
func ParseAttributes(h tabular.Header, rows [][]string) (map[string]Attributes, error) {
	firmIdx := h.Index("companyname", "company", "firm_name")
	if firmIdx < 0 {
		return nil, eris.New("panel: attributes missing companyname column")
	}
	foundedIdx := h.Index("founded", "year_founded", "founded_year")
	teleIdx := h.Index("teleworkable", "teleworkable_score")
	flexIdx := h.Index("flexibility_score", "remote", "flexibility")

	out := make(map[string]Attributes, len(rows))
	var dupes int
	for _, rec := range rows {
		firm := tabular.Field(rec, firmIdx)
		key := transform.FirmKey(firm)
		if key == "" {
			continue
		}
		if _, ok := out[key]; ok {
			dupes++
			continue
		}
		out[key] = Attributes{
			Firm:         firm,
			Founded:      parseOrNaN(tabular.Field(rec, foundedIdx)),
			Teleworkable: parseOrNaN(tabular.Field(rec, teleIdx)),
			Flexibility:  parseOrNaN(tabular.Field(rec, flexIdx)),
		}
	}
	if dupes > 0 {
		zap.L().Warn("panel: duplicate firm attributes ignored", zap.Int("duplicates", dupes))
	}
	return out, nil
}

// ParseTopMetros reads company_top_msa_by_half rows into firm-half -> CBSA.
func ParseTopMetros(h tabular.Header, rows [][]string) (map[halfKey]string, error) {
	if err := h.Require(footprint.TopFile, footprint.TopColumns...); err != nil {
		return nil, err
	}
	out := make(map[halfKey]string, len(rows))
	for _, rec := range rows {
		half, ok := parseHalf(h, rec)
		if !ok {
			continue
		}
		out[halfKey{firm: transform.FirmKey(h.Get(rec, "companyname")), half: half}] = h.Get(rec, "cbsacode")
	}
	return out, nil
}

// ParseDispersion reads company_dispersion rows and averages each firm over
// the halves present.
func ParseDispersion(h tabular.Header, rows [][]string) (map[string]Dispersion, error) {
	if err := h.Require("dispersion", footprint.DispersionColumns...); err != nil {
		return nil, err
	}
	type acc struct {
		core, dist float64
		n          int
	}
	sums := make(map[string]*acc)
	for _, rec := range rows {
		core, okC := tabular.ParseFloat(h.Get(rec, "filtered_msa_cnt"))
		dist, okD := tabular.ParseFloat(h.Get(rec, "avgdist_km"))
		if !okC || !okD {
			continue
		}
		key := transform.FirmKey(h.Get(rec, "companyname"))
		a, ok := sums[key]
		if !ok {
			a = &acc{}
			sums[key] = a
		}
		a.core += core
		a.dist += dist
		a.n++
	}
	out := make(map[string]Dispersion, len(sums))
	for k, a := range sums {
		out[k] = Dispersion{CoreCount: a.core / float64(a.n), AvgDistKM: a.dist / float64(a.n)}
	}
	return out, nil
}

// ParseFirmHHI reads firm_hhi_msa rows. The value column is the first one
// named hhi_msa_<year>.
func ParseFirmHHI(h tabular.Header, rows [][]string) (map[string]float64, error) {
	firmIdx := h.Index("companyname")
	hhiIdx := -1
	best := ""
	for name, idx := range h {
		if strings.HasPrefix(name, "hhi_msa") && (best == "" || name < best) {
			best, hhiIdx = name, idx
		}
	}
	if firmIdx < 0 || hhiIdx < 0 {
		return nil, eris.New("panel: firm hhi needs companyname and hhi_msa_<year> columns")
	}
	out := make(map[string]float64, len(rows))
	for _, rec := range rows {
		if v, ok := tabular.ParseFloat(tabular.Field(rec, hhiIdx)); ok {
			out[transform.FirmKey(tabular.Field(rec, firmIdx))] = v
		}
	}
	return out, nil
}

// CBSAHalfHHI indexes half-year CBSA concentration rows.
func CBSAHalfHHI(rows []concentration.HalfRow) map[cbsaKey]float64 {
	out := make(map[cbsaKey]float64, len(rows))
	for _, r := range rows {
		out[cbsaKey{cbsa: r.CBSA, soc4: r.SOC4, half: footprint.HalfYear{Year: r.Year, Half: r.Half}}] = r.HHI
	}
	return out
}
