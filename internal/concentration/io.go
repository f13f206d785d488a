package concentration

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geopanel/internal/tabular"
	"github.com/sells-group/geopanel/internal/transform"
)

// Columns of the CBSA-level output.
var CBSAColumns = []string{"cbsa", "soc4", "year", "quarter", "hhi"}

// OutputFile returns the CBSA-level file name for mode.
func OutputFile(mode Mode) string {
	return fmt.Sprintf("cbsa_hhi_%s.csv", mode)
}

// ReadCZ reads the CZ-level HHI file (cz, soc_code, year, quarter, hhi).
// SOC codes are harmonized to 4 digits. A quarter written as "2019Q3"
// supplies both year and quarter. Rows with unusable keys or HHI are dropped
// and counted in the second result.
func ReadCZ(path string) ([]CZRow, int, error) {
	header, rows, err := tabular.ReadCSVFile(path, tabular.CSVOptions{})
	if err != nil {
		return nil, 0, eris.Wrap(err, "concentration: read cz hhi")
	}

	czIdx := header.Index("cz", "czone", "cz2000")
	socIdx := header.Index("soc_code", "soc", "occ_code", "soc6")
	yearIdx := header.Index("year")
	qIdx := header.Index("quarter", "qtr", "yq")
	hhiIdx := header.Index("hhi")
	if czIdx < 0 || socIdx < 0 || qIdx < 0 || hhiIdx < 0 {
		return nil, 0, eris.Errorf("concentration: %s needs cz, soc_code, quarter and hhi columns", path)
	}

	out := make([]CZRow, 0, len(rows))
	var bad int
	for _, rec := range rows {
		r := CZRow{
			CZ:   strings.TrimSuffix(tabular.Field(rec, czIdx), ".0"),
			SOC4: transform.SOC4(tabular.Field(rec, socIdx)),
		}
		year, quarter, ok := parseQuarter(tabular.Field(rec, yearIdx), tabular.Field(rec, qIdx))
		hhi, okH := tabular.ParseFloat(tabular.Field(rec, hhiIdx))
		if r.CZ == "" || r.SOC4 == "" || !ok || !okH {
			bad++
			continue
		}
		r.Year, r.Quarter, r.HHI = year, quarter, hhi
		out = append(out, r)
	}

	if bad > 0 {
		zap.L().Warn("concentration: dropped unusable cz rows", zap.String("path", path), zap.Int("dropped", bad))
	}
	return out, bad, nil
}

// parseQuarter accepts a separate year and quarter (1-4), or a combined
// "2019Q3" / "2019q3" quarter value.
func parseQuarter(yearField, quarterField string) (int, int, bool) {
	q := strings.ToUpper(quarterField)
	if i := strings.Index(q, "Q"); i > 0 {
		year, okY := tabular.ParseInt(q[:i])
		quarter, okQ := tabular.ParseInt(q[i+1:])
		if !okY || !okQ || quarter < 1 || quarter > 4 {
			return 0, 0, false
		}
		return year, quarter, true
	}

	year, okY := tabular.ParseInt(yearField)
	quarter, okQ := tabular.ParseInt(strings.TrimPrefix(q, "Q"))
	if !okY || !okQ || quarter < 1 || quarter > 4 {
		return 0, 0, false
	}
	return year, quarter, true
}

// Rows renders CBSA rows for output.
func Rows(rows []CBSARow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.CBSA, r.SOC4, tabular.FormatInt(r.Year), tabular.FormatInt(r.Quarter), tabular.FormatFloat(r.HHI)})
	}
	return out
}

// ReadCBSA loads a CBSA-level file written from Rows.
func ReadCBSA(path string) ([]CBSARow, error) {
	header, rows, err := tabular.ReadCSVFile(path, tabular.CSVOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "concentration: read cbsa hhi")
	}
	if err := header.Require(path, CBSAColumns...); err != nil {
		return nil, err
	}

	out := make([]CBSARow, 0, len(rows))
	for _, rec := range rows {
		year, okY := tabular.ParseInt(header.Get(rec, "year"))
		q, okQ := tabular.ParseInt(header.Get(rec, "quarter"))
		hhi, okH := tabular.ParseFloat(header.Get(rec, "hhi"))
		if !okY || !okQ || !okH {
			continue
		}
		out = append(out, CBSARow{CBSA: header.Get(rec, "cbsa"), SOC4: header.Get(rec, "soc4"), Year: year, Quarter: q, HHI: hhi})
	}
	return out, nil
}
