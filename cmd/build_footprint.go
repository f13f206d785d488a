package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geopanel/internal/footprint"
	"github.com/sells-group/geopanel/internal/geo"
	"github.com/sells-group/geopanel/internal/manifest"
	"github.com/sells-group/geopanel/internal/paths"
	"github.com/sells-group/geopanel/internal/store"
)

const (
	spellsFile     = "spells.csv"
	metrosFile     = "msa_enrichment.csv"
	metrosProducer = "geopanel geo centroids"
)

// footprintRun carries resolved footprint settings from flags and config.
type footprintRun struct {
	Spells  string
	Metros  string
	OutDir  string
	Engine  footprint.Options
	Summary footprint.SummaryOptions
}

var buildFootprintCmd = &cobra.Command{
	Use:   "footprint",
	Short: "Stream worker spells into firm metro footprints",
	Long: "Streams the spell file in fixed-size chunks, counting spells per firm, half-year and metro, " +
		"then writes top metros, core metros, dispersion, headcounts and the baseline-year firm HHI.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		run := footprintRun{
			Spells: pathFlag(cmd, "spells", dirs.Raw(spellsFile)),
			Metros: pathFlag(cmd, "metros", dirs.Raw(metrosFile)),
			OutDir: outDirFlag(cmd),
			Engine: footprint.Options{
				ChunkRows:    cfg.Footprint.ChunkRows,
				TestRows:     cfg.Footprint.TestRows,
				BaselineYear: cfg.Footprint.BaselineYear,
			},
			Summary: footprint.SummaryOptions{
				CoreMinSpells:  cfg.Footprint.CoreMinSpells,
				CoreMinShare:   cfg.Footprint.CoreMinShare,
				DispersionYear: cfg.Footprint.DispersionYear,
			},
		}
		if cmd.Flags().Changed("test_rows") {
			run.Engine.TestRows, _ = cmd.Flags().GetInt("test_rows")
		}
		if cmd.Flags().Changed("chunk_rows") {
			run.Engine.ChunkRows, _ = cmd.Flags().GetInt("chunk_rows")
		}
		if run.Engine.ChunkRows <= 0 || run.Engine.TestRows < 0 {
			return eris.New("--chunk_rows must be positive and --test_rows non-negative")
		}

		return runStep(cmd.Context(), "footprint", run.OutDir, func(ctx context.Context, m *manifest.Manifest, st store.Store) error {
			return buildFootprint(ctx, m, st, run, os.Stdout)
		})
	},
}

func buildFootprint(ctx context.Context, m *manifest.Manifest, st store.Store, run footprintRun, w io.Writer) error {
	if err := paths.RequireFile(run.Spells, rawDownload); err != nil {
		return err
	}
	if err := paths.RequireFile(run.Metros, metrosProducer); err != nil {
		return err
	}
	m.Input(run.Spells)
	m.Input(run.Metros)
	m.Set("chunk_rows", run.Engine.ChunkRows)
	m.Set("test_rows", run.Engine.TestRows)
	m.Set("baseline_year", run.Engine.BaselineYear)
	m.Set("dispersion_year", run.Summary.DispersionYear)
	m.Set("core_min_spells", run.Summary.CoreMinSpells)
	m.Set("core_min_share", run.Summary.CoreMinShare)

	metros, ls, err := geo.LoadMetros(run.Metros)
	if err != nil {
		return err
	}
	zap.L().Info("metro lookup loaded",
		zap.Int("rows", ls.Rows),
		zap.Int("loaded", ls.Loaded),
		zap.Int("no_cbsa", ls.NoCBSA),
		zap.Int("bad_coords", ls.BadCoords),
	)

	res, err := footprint.New(metros, run.Engine).RunFile(ctx, run.Spells)
	if err != nil {
		return err
	}

	d := res.Diagnostics
	m.Diagnose(d.Map())
	rec.AddCounts("footprint", d.Map())
	if d.Counted == 0 {
		printDiagnostics(w, d, 0)
		return eris.Wrapf(footprint.ErrNoSpells, "footprint: %d rows read from %s", d.RowsRead, run.Spells)
	}

	if err := writeTables(ctx, st, m, run.OutDir, footprint.Tables(res, metros, run.Summary)); err != nil {
		return err
	}

	printDiagnostics(w, d, len(res.Presence.Keys()))
	return nil
}

// printDiagnostics writes the defect counters as an aligned table.
func printDiagnostics(w io.Writer, d footprint.Diagnostics, firmHalves int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COUNTER\tVALUE")
	counts := d.Map()
	for _, name := range d.Names() {
		fmt.Fprintf(tw, "%s\t%d\n", name, counts[name])
	}
	fmt.Fprintf(tw, "firm_halves\t%d\n", firmHalves)
	tw.Flush() //nolint:errcheck
}

func init() {
	f := buildFootprintCmd.Flags()
	f.String("spells", "", "worker spell CSV (default raw/"+spellsFile+")")
	f.String("metros", "", "metro enrichment CSV with msa, cbsacode, lat, lon (default raw/"+metrosFile+")")
	f.Int("test_rows", 0, "stop after this many spell rows (0 reads everything)")
	f.Int("chunk_rows", 0, "spell rows held in memory per chunk (default from config)")
	f.String("out-dir", "", "output directory (default derived data directory)")
	buildCmd.AddCommand(buildFootprintCmd)
}
