package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/geopanel/internal/crosswalk"
	"github.com/sells-group/geopanel/internal/manifest"
	"github.com/sells-group/geopanel/internal/paths"
	"github.com/sells-group/geopanel/internal/store"
	"github.com/sells-group/geopanel/internal/tabular"
)

// Default raw input names for the crosswalk.
const (
	countyCZFile   = "county_cz.csv"
	countyCBSAFile = "cbsa_delineation.xlsx"
	countyPopFile  = "county_population.csv"
	rawDownload    = "a manual download into the raw data directory"
)

var buildCrosswalkCmd = &cobra.Command{
	Use:   "crosswalk",
	Short: "Build the CZ -> CBSA crosswalks",
	Long:  "Joins county -> commuting zone, county -> CBSA and county population tables into largest-share and population-weighted CZ -> CBSA mappings.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		in := crosswalk.Inputs{
			CountyCZ:         pathFlag(cmd, "county-cz", dirs.Raw(countyCZFile)),
			CountyCBSA:       pathFlag(cmd, "county-cbsa", dirs.Raw(countyCBSAFile)),
			CountyPopulation: pathFlag(cmd, "county-pop", dirs.Raw(countyPopFile)),
		}
		outDir := outDirFlag(cmd)

		return runStep(cmd.Context(), "crosswalk", outDir, func(ctx context.Context, m *manifest.Manifest, st store.Store) error {
			return buildCrosswalk(ctx, m, st, in, outDir)
		})
	},
}

func buildCrosswalk(ctx context.Context, m *manifest.Manifest, st store.Store, in crosswalk.Inputs, outDir string) error {
	for _, p := range []string{in.CountyCZ, in.CountyCBSA, in.CountyPopulation} {
		if err := paths.RequireFile(p, rawDownload); err != nil {
			return err
		}
		m.Input(p)
	}

	opts := crosswalk.LoadOptions{
		CBSASkipRows:     cfg.Crosswalk.CBSASkipRows,
		PopulationColumn: cfg.Crosswalk.PopulationColumn,
	}
	m.Set("cbsa_skip_rows", opts.CBSASkipRows)
	m.Set("population_column", opts.PopulationColumn)

	tables, err := crosswalk.LoadAll(ctx, in, opts)
	if err != nil {
		return err
	}

	largest, fractional, stats, err := crosswalk.Build(tables.CountyCZ, tables.CountyCBSA, tables.Population)
	if err != nil {
		return err
	}

	counts := map[string]int{
		"counties":        stats.Counties,
		"joined":          stats.Joined,
		"no_cbsa":         stats.NoCBSA,
		"no_population":   stats.NoPopulation,
		"czs":             stats.CZs,
		"rural_czs":       stats.RuralCZs,
		"zero_pop_czs":    stats.ZeroPopCZs,
		"largest_rows":    stats.LargestRows,
		"fractional_rows": stats.FractionalRows,
	}
	m.Diagnose(counts)
	rec.AddCounts("crosswalk", counts)

	out := []tabular.Table{
		{Name: crosswalk.LargestFile, Columns: crosswalk.LargestColumns, Rows: largest.Rows()},
		{Name: crosswalk.FractionalFile, Columns: crosswalk.FractionalColumns, Rows: fractional.Rows()},
	}
	if err := writeTables(ctx, st, m, outDir, out); err != nil {
		return err
	}

	fmt.Printf("crosswalk: %d CZs -> %d CBSAs (largest), %d fractional rows; %d of %d counties joined\n",
		stats.LargestRows, len(largest.CBSAs()), stats.FractionalRows, stats.Joined, stats.Counties)
	return nil
}

func init() {
	buildCrosswalkCmd.Flags().String("county-cz", "", "county -> commuting zone CSV (default raw/"+countyCZFile+")")
	buildCrosswalkCmd.Flags().String("county-cbsa", "", "CBSA delineation .xlsx or county -> CBSA CSV (default raw/"+countyCBSAFile+")")
	buildCrosswalkCmd.Flags().String("county-pop", "", "county population CSV (default raw/"+countyPopFile+")")
	buildCrosswalkCmd.Flags().String("out-dir", "", "output directory (default derived data directory)")
	buildCmd.AddCommand(buildCrosswalkCmd)
}
