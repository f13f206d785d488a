package panel

import "github.com/sells-group/geopanel/internal/tabular"

// Columns returns the output header for level.
func Columns(level Level) []string {
	cols := []string{"companyname", "firm_id"}
	if level == LevelOcc {
		cols = append(cols, "soc4", "occ_id")
	}
	cols = append(cols,
		"year", "half", "headcount", "growth", "growth_raw",
		"age", "startup", "teleworkable", "remote", "post",
		"remote_x_post", "startup_x_post", "remote_x_startup", "remote_x_startup_x_post", "teleworkable_x_post",
		"cbsacode", "hhi_msa", "filtered_msa_cnt", "avgdist_km",
	)
	if level == LevelOcc {
		cols = append(cols, "hhi")
	}
	return cols
}

// Rows renders rows in Columns(level) order. NaN renders as empty.
func Rows(rows []Row, level Level) [][]string {
	f := tabular.FormatFloat
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		rec := []string{r.Firm, tabular.FormatInt(r.FirmID)}
		if level == LevelOcc {
			rec = append(rec, r.SOC4, tabular.FormatInt(r.OccID))
		}
		rec = append(rec,
			tabular.FormatInt(r.Half.Year), tabular.FormatInt(r.Half.Half), f(r.Headcount), f(r.Growth), f(r.GrowthRaw),
			f(r.Age), f(r.Startup), f(r.Teleworkable), f(r.Remote), f(r.Post),
			f(r.RemoteXPost), f(r.StartupXPost), f(r.RemoteXStartup), f(r.RemoteXStartupPost), f(r.TeleworkableXPost),
			r.CBSA, f(r.HHIMSA), f(r.CoreCount), f(r.AvgDistKM),
		)
		if level == LevelOcc {
			rec = append(rec, f(r.HHI))
		}
		out = append(out, rec)
	}
	return out
}
