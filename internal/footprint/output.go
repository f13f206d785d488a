package footprint

import (
	"fmt"

	"github.com/sells-group/geopanel/internal/geo"
	"github.com/sells-group/geopanel/internal/tabular"
)

// Output file names. The year-suffixed names follow the configured
// baseline and dispersion years.
const (
	TopFile        = "company_top_msa_by_half.csv"
	CoreFile       = "company_core_msas_by_half.csv"
	PresenceFile   = "company_msa_presence_by_half.csv"
	HeadcountFile  = "company_headcount_by_half.csv"
	OccupationFile = "company_occ_headcount_by_half.csv"
	HHIFile        = "firm_hhi_msa.csv"
)

// Output column contracts.
var (
	TopColumns        = []string{"companyname", "year", "half", "cbsacode", "msa", "spell_count"}
	CoreColumns       = []string{"companyname", "year", "half", "cbsa", "msa", "spell_count", "spell_share"}
	PresenceColumns   = []string{"companyname", "year", "half", "cbsa", "msa", "spell_count"}
	HeadcountColumns  = []string{"companyname", "year", "half", "headcount"}
	OccupationColumns = []string{"companyname", "soc4", "year", "half", "headcount"}
)

// DispersionFile returns the dispersion output name for year.
func DispersionFile(year int) string {
	return fmt.Sprintf("company_dispersion_%d.csv", year)
}

// DispersionColumns is the dispersion output header.
var DispersionColumns = []string{"companyname", "year", "half", "filtered_msa_cnt", "avgdist_km"}

// HHIColumns returns the firm HHI header; the value column carries the
// baseline year.
func HHIColumns(baselineYear int) []string {
	return []string{"companyname", fmt.Sprintf("hhi_msa_%d", baselineYear)}
}

// SummaryOptions sets the core-metro floors and the dispersion year.
type SummaryOptions struct {
	CoreMinSpells  int
	CoreMinShare   float64
	DispersionYear int
}

// Tables renders every output of res as sorted string rows. Rendering is
// deterministic, so equal results give byte-identical files.
func Tables(res *Result, metros geo.Lookup, opts SummaryOptions) []tabular.Table {
	keys := res.Presence.Keys()

	top := tabular.Table{Name: TopFile, Columns: TopColumns}
	core := tabular.Table{Name: CoreFile, Columns: CoreColumns}
	presence := tabular.Table{Name: PresenceFile, Columns: PresenceColumns}
	headcount := tabular.Table{Name: HeadcountFile, Columns: HeadcountColumns}
	dispersion := tabular.Table{Name: DispersionFile(opts.DispersionYear), Columns: DispersionColumns}

	for _, t := range TopMetros(res.Presence) {
		top.Rows = append(top.Rows, []string{t.Key.Firm, tabular.FormatInt(t.Key.Year), tabular.FormatInt(t.Key.Half), t.Metro.CBSA, t.Metro.Name, tabular.FormatInt(t.Count)})
	}

	for _, k := range keys {
		counts := res.Presence[k]
		year, half := tabular.FormatInt(k.Year), tabular.FormatInt(k.Half)

		for _, mk := range sortedMetros(counts) {
			presence.Rows = append(presence.Rows, []string{k.Firm, year, half, mk.CBSA, mk.Name, tabular.FormatInt(counts[mk])})
		}
		headcount.Rows = append(headcount.Rows, []string{k.Firm, year, half, tabular.FormatInt(res.Presence.Total(k))})

		cm := CoreMetros(counts, opts.CoreMinSpells, opts.CoreMinShare)
		for _, c := range cm {
			core.Rows = append(core.Rows, []string{k.Firm, year, half, c.Metro.CBSA, c.Metro.Name, tabular.FormatInt(c.Count), tabular.FormatFloat(c.Share)})
		}
		if k.Year == opts.DispersionYear {
			dispersion.Rows = append(dispersion.Rows, []string{k.Firm, year, half, tabular.FormatInt(len(cm)), tabular.FormatFloat(Disperse(cm, metros))})
		}
	}

	hhi := tabular.Table{Name: HHIFile, Columns: HHIColumns(res.BaselineYear)}
	firmHHI := FirmHHI(res.Baseline)
	for _, firm := range sortedFirms(firmHHI) {
		hhi.Rows = append(hhi.Rows, []string{firm, tabular.FormatFloat(firmHHI[firm])})
	}

	tables := []tabular.Table{hhi, top, dispersion, core, presence, headcount}

	if res.HasSOC {
		occ := tabular.Table{Name: OccupationFile, Columns: OccupationColumns}
		occKeys := make([]OccKey, 0, len(res.Occupation))
		for k := range res.Occupation {
			occKeys = append(occKeys, k)
		}
		sortOccKeys(occKeys)
		for _, k := range occKeys {
			occ.Rows = append(occ.Rows, []string{k.Firm, k.SOC4, tabular.FormatInt(k.Year), tabular.FormatInt(k.Half), tabular.FormatInt(res.Occupation[k])})
		}
		tables = append(tables, occ)
	}
	return tables
}
