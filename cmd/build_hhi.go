package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sells-group/geopanel/internal/concentration"
	"github.com/sells-group/geopanel/internal/crosswalk"
	"github.com/sells-group/geopanel/internal/manifest"
	"github.com/sells-group/geopanel/internal/paths"
	"github.com/sells-group/geopanel/internal/store"
	"github.com/sells-group/geopanel/internal/tabular"
)

const (
	czHHIFile         = "cz_hhi.csv"
	crosswalkProducer = "geopanel build crosswalk"
)

var buildHHICmd = &cobra.Command{
	Use:   "hhi",
	Short: "Aggregate CZ labor-market HHI to CBSAs",
	Long: "Aggregates commuting-zone x occupation x quarter HHI to CBSA x occupation x quarter, " +
		"either through the largest-share mapping (plain mean) or the population-weighted mapping (weighted mean).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		modeName, _ := cmd.Flags().GetString("mode")
		mode, err := concentration.ParseMode(modeName)
		if err != nil {
			return err
		}
		input := pathFlag(cmd, "input", dirs.Raw(czHHIFile))
		inDir, outDir := inDirFlag(cmd), outDirFlag(cmd)

		return runStep(cmd.Context(), "hhi", outDir, func(ctx context.Context, m *manifest.Manifest, st store.Store) error {
			return buildHHI(ctx, m, st, mode, input, inDir, outDir)
		})
	},
}

// buildHHI aggregates input through the crosswalk that "build crosswalk"
// wrote to inDir.
func buildHHI(ctx context.Context, m *manifest.Manifest, st store.Store, mode concentration.Mode, input, inDir, outDir string) error {
	if err := paths.RequireFile(input, rawDownload); err != nil {
		return err
	}
	m.Input(input)
	m.Set("mode", string(mode))

	var (
		largest    crosswalk.Largest
		fractional crosswalk.Fractional
		err        error
	)
	switch mode {
	case concentration.ModeLargest:
		path := filepath.Join(inDir, crosswalk.LargestFile)
		if err := paths.RequireFile(path, crosswalkProducer); err != nil {
			return err
		}
		m.Input(path)
		if largest, err = crosswalk.ReadLargest(path); err != nil {
			return err
		}
	case concentration.ModeWeighted:
		path := filepath.Join(inDir, crosswalk.FractionalFile)
		if err := paths.RequireFile(path, crosswalkProducer); err != nil {
			return err
		}
		m.Input(path)
		if fractional, err = crosswalk.ReadFractional(path); err != nil {
			return err
		}
	}

	rows, bad, err := concentration.ReadCZ(input)
	if err != nil {
		return err
	}

	out, stats, err := concentration.Aggregate(rows, largest, fractional, mode)
	if err != nil {
		return err
	}

	counts := map[string]int{
		"bad_rows":   bad,
		"input_rows": stats.InputRows,
		"matched":    stats.Matched,
		"unmatched":  stats.Unmatched,
		"output":     stats.Output,
	}
	m.Diagnose(counts)
	rec.AddCounts("hhi", counts)

	table := tabular.Table{
		Name:    concentration.OutputFile(mode),
		Columns: concentration.CBSAColumns,
		Rows:    concentration.Rows(out),
	}
	if err := writeTables(ctx, st, m, outDir, []tabular.Table{table}); err != nil {
		return err
	}

	fmt.Printf("hhi (%s): %d CZ rows -> %d CBSA rows; %d unmatched, %d unparseable\n",
		mode, stats.InputRows, stats.Output, stats.Unmatched, bad)
	return nil
}

func init() {
	buildHHICmd.Flags().String("mode", string(concentration.ModeWeighted), "crosswalk to aggregate through: largest or weighted")
	buildHHICmd.Flags().String("input", "", "CZ x occupation x quarter HHI CSV (default raw/"+czHHIFile+")")
	buildHHICmd.Flags().String("in-dir", "", "directory holding the crosswalk outputs (default derived data directory)")
	buildHHICmd.Flags().String("out-dir", "", "output directory (default derived data directory)")
	buildCmd.AddCommand(buildHHICmd)
}
