package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/geopanel/internal/concentration"
	"github.com/sells-group/geopanel/internal/footprint"
	"github.com/sells-group/geopanel/internal/manifest"
	"github.com/sells-group/geopanel/internal/panel"
	"github.com/sells-group/geopanel/internal/paths"
	"github.com/sells-group/geopanel/internal/store"
	"github.com/sells-group/geopanel/internal/tabular"
)

const (
	footprintProducer = "geopanel build footprint"
	hhiProducer       = "geopanel build hhi"
)

// panelRun carries resolved panel settings.
type panelRun struct {
	Attributes string
	InDir      string // outputs of build footprint and build hhi
	OutDir     string
	HHIMode    concentration.Mode
	Options    panel.Options
}

var buildPanelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Assemble the firm or firm x occupation half-year panel",
	Long: "Joins headcounts, firm attributes, firm HHI, dispersion and (at the occ level) CBSA occupational " +
		"concentration, derives growth and treatment variables and writes the analysis panel.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		levelName, _ := cmd.Flags().GetString("level")
		level, err := panel.ParseLevel(levelName)
		if err != nil {
			return err
		}
		modeName, _ := cmd.Flags().GetString("hhi-mode")
		mode, err := concentration.ParseMode(modeName)
		if err != nil {
			return err
		}

		run := panelRun{
			Attributes: pathFlag(cmd, "attributes", dirs.Raw(panel.AttributesTable+".csv")),
			InDir:      inDirFlag(cmd),
			OutDir:     outDirFlag(cmd),
			HHIMode:    mode,
			Options: panel.Options{
				Level:         level,
				StartupMaxAge: cfg.Panel.StartupMaxAge,
				PostYear:      cfg.Panel.PostYear,
				PostHalf:      cfg.Panel.PostHalf,
				WinsorLower:   cfg.Panel.WinsorLower,
				WinsorUpper:   cfg.Panel.WinsorUpper,
			},
		}

		return runStep(cmd.Context(), "panel_"+string(level), run.OutDir, func(ctx context.Context, m *manifest.Manifest, st store.Store) error {
			return buildPanel(ctx, m, st, run)
		})
	},
}

func buildPanel(ctx context.Context, m *manifest.Manifest, st store.Store, run panelRun) error {
	opts := run.Options
	occ := opts.Level == panel.LevelOcc
	m.Set("level", string(opts.Level))
	m.Set("post", footprint.HalfYear{Year: opts.PostYear, Half: opts.PostHalf}.String())
	m.Set("startup_max_age", opts.StartupMaxAge)
	m.Set("winsor", []float64{opts.WinsorLower, opts.WinsorUpper})

	in := panel.NewInputs()

	headcountFile := footprint.HeadcountFile
	if occ {
		headcountFile = footprint.OccupationFile
	}
	h, rows, err := readDerived(m, run.InDir, headcountFile, footprintProducer)
	if err != nil {
		return err
	}
	if in.Headcount, err = panel.ParseHeadcount(h, rows, occ); err != nil {
		return err
	}

	if h, rows, err = readDerived(m, run.InDir, footprint.TopFile, footprintProducer); err != nil {
		return err
	}
	if in.TopCBSA, err = panel.ParseTopMetros(h, rows); err != nil {
		return err
	}

	if h, rows, err = readDerived(m, run.InDir, footprint.DispersionFile(cfg.Footprint.DispersionYear), footprintProducer); err != nil {
		return err
	}
	if in.Dispersion, err = panel.ParseDispersion(h, rows); err != nil {
		return err
	}

	if h, rows, err = readDerived(m, run.InDir, footprint.HHIFile, footprintProducer); err != nil {
		return err
	}
	if in.FirmHHI, err = panel.ParseFirmHHI(h, rows); err != nil {
		return err
	}

	if h, rows, err = readAttributes(ctx, m, st, run.Attributes); err != nil {
		return err
	}
	if in.Attributes, err = panel.ParseAttributes(h, rows); err != nil {
		return err
	}

	if occ {
		path := filepath.Join(run.InDir, concentration.OutputFile(run.HHIMode))
		if err := paths.RequireFile(path, hhiProducer); err != nil {
			return err
		}
		m.Input(path)
		quarters, err := concentration.ReadCBSA(path)
		if err != nil {
			return err
		}
		in.CBSAHHI = panel.CBSAHalfHHI(concentration.ToHalfYear(quarters))
	}

	out, stats, err := panel.Build(in, opts)
	if err != nil {
		return err
	}

	counts := map[string]int{
		"headcount":       stats.Headcount,
		"with_lag":        stats.WithLag,
		"with_attributes": stats.WithAttributes,
		"with_top_cbsa":   stats.WithTopCBSA,
		"with_firm_hhi":   stats.WithFirmHHI,
		"with_cbsa_hhi":   stats.WithCBSAHHI,
		"dropped":         stats.Dropped,
		"output":          stats.Output,
		"firms":           stats.Firms,
		"occupations":     stats.Occupations,
	}
	m.Diagnose(counts)
	m.Set("growth_winsor_bounds", []float64{stats.WinsorLow, stats.WinsorHigh})
	rec.AddCounts("panel_"+string(opts.Level), counts)

	table := tabular.Table{
		Name:    opts.Level.OutputName() + ".csv",
		Columns: panel.Columns(opts.Level),
		Rows:    panel.Rows(out, opts.Level),
	}
	if err := writeTables(ctx, st, m, run.OutDir, []tabular.Table{table}); err != nil {
		return err
	}

	fmt.Printf("panel (%s): %d rows, %d firms; %d dropped for missing required variables\n",
		opts.Level, stats.Output, stats.Firms, stats.Dropped)
	return nil
}

// readDerived reads an earlier step's CSV output from dir.
func readDerived(m *manifest.Manifest, dir, name, producer string) (tabular.Header, [][]string, error) {
	path := filepath.Join(dir, name)
	if err := paths.RequireFile(path, producer); err != nil {
		return nil, nil, err
	}
	m.Input(path)
	return tabular.ReadCSVFile(path, tabular.CSVOptions{})
}

// readAttributes reads firm attributes from path, falling back to the
// firm_attributes store table loaded by "geopanel store import".
func readAttributes(ctx context.Context, m *manifest.Manifest, st store.Store, path string) (tabular.Header, [][]string, error) {
	if _, err := os.Stat(path); err == nil {
		m.Input(path)
		return tabular.ReadCSVFile(path, tabular.CSVOptions{})
	}

	cols, rows, err := st.ReadTable(ctx, panel.AttributesTable)
	if eris.Is(err, store.ErrTableNotFound) {
		return nil, nil, paths.RequireFile(path, "a manual download or geopanel store import "+panel.AttributesTable)
	}
	if err != nil {
		return nil, nil, err
	}
	m.Input("store:" + panel.AttributesTable)
	return tabular.NewHeader(cols), rows, nil
}

func init() {
	f := buildPanelCmd.Flags()
	f.String("level", string(panel.LevelFirm), "panel unit: firm or occ")
	f.String("attributes", "", "firm attributes CSV (default raw/"+panel.AttributesTable+".csv, then the store table)")
	f.String("hhi-mode", string(concentration.ModeWeighted), "CBSA HHI variant joined at the occ level: largest or weighted")
	f.String("in-dir", "", "directory holding the footprint and hhi outputs (default derived data directory)")
	f.String("out-dir", "", "output directory (default derived data directory)")
	buildCmd.AddCommand(buildPanelCmd)
}
