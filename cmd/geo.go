package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geopanel/internal/geo"
	"github.com/sells-group/geopanel/internal/paths"
)

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Metro geography helpers",
	Long:  "Build the metro enrichment lookup used by the footprint step.",
}

var geoCentroidsCmd = &cobra.Command{
	Use:   "centroids",
	Short: "Write the metro lookup from a CBSA shapefile",
	Long: "Reads a TIGER/Line CBSA shapefile and writes one msa, cbsacode, lat, lon row per CBSA, " +
		"located at the Census internal point.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		shpPath, _ := cmd.Flags().GetString("shapefile")
		if err := paths.RequireFile(shpPath, "the Census TIGER/Line CBSA download"); err != nil {
			return err
		}
		out := pathFlag(cmd, "out", dirs.Raw(metrosFile))
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return eris.Wrapf(err, "geo: create directory for %s", out)
		}

		metros, err := geo.LoadMetroCentroids(shpPath)
		if err != nil {
			return eris.Wrap(err, "geo centroids")
		}
		if err := geo.WriteMetros(out, metros); err != nil {
			return err
		}

		zap.L().Info("metro lookup written", zap.String("path", out), zap.Int("metros", len(metros)))
		fmt.Printf("wrote %d metros to %s\n", len(metros), out)
		return nil
	},
}

func init() {
	geoCentroidsCmd.Flags().String("shapefile", "", "path to the CBSA .shp file (required)")
	_ = geoCentroidsCmd.MarkFlagRequired("shapefile")
	geoCentroidsCmd.Flags().String("out", "", "output CSV (default raw/"+metrosFile+")")
	geoCmd.AddCommand(geoCentroidsCmd)
	rootCmd.AddCommand(geoCmd)
}
