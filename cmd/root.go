package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geopanel/internal/config"
	"github.com/sells-group/geopanel/internal/metrics"
	"github.com/sells-group/geopanel/internal/paths"
)

var (
	cfg  *config.Config
	dirs *paths.Paths
	rec  *metrics.Recorder
)

var rootCmd = &cobra.Command{
	Use:   "geopanel",
	Short: "Firm geographic footprint and labor-market concentration panels",
	Long: "Builds county-CZ-CBSA crosswalks, re-aggregates commuting-zone HHI to CBSAs, " +
		"streams worker spells into firm metro footprints, and assembles firm and occupation half-year panels.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		d, err := paths.Resolve(cfg.Paths, cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("resolve paths: %w", err)
		}
		dirs = d
		rec = metrics.New()

		zap.L().Debug("paths resolved",
			zap.String("root", dirs.Root),
			zap.String("raw", dirs.RawDir),
			zap.String("derived", dirs.Derived),
		)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer func() { _ = zap.L().Sync() }()
		return rec.WriteTextfile(cfg.Metrics.Textfile)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
