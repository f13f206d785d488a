package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geopanel/internal/manifest"
	"github.com/sells-group/geopanel/internal/store"
	"github.com/sells-group/geopanel/internal/tabular"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run a pipeline build step",
	Long: "Each step reads raw inputs or the outputs of an earlier step and fully overwrites its own outputs. " +
		"Two builds must not write the same output directory at the same time.",
}

func init() { rootCmd.AddCommand(buildCmd) }

// stepFunc does the work of one build step, recording inputs and outputs on m.
type stepFunc func(ctx context.Context, m *manifest.Manifest, st store.Store) error

// runStep wraps fn with the build record, metrics and manifest shared by
// every step.
func runStep(ctx context.Context, step, outDir string, fn stepFunc) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	log := zap.L().With(zap.String("step", step))

	if err := dirs.EnsureDerived(); err != nil {
		return err
	}
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	b, err := st.StartBuild(ctx, step)
	if err != nil {
		return err
	}

	m := manifest.New(step)
	runErr := fn(ctx, m, st)

	rec.ObserveBuild(step, started, runErr)
	if err := st.FinishBuild(ctx, b.ID, m.TotalRows(), runErr); err != nil {
		log.Warn("record build result", zap.Error(err))
	}
	if runErr != nil {
		return runErr
	}

	path, err := m.Write(outDir)
	if err != nil {
		return err
	}
	log.Info("build complete",
		zap.Int("rows", m.TotalRows()),
		zap.Duration("elapsed", time.Since(started)),
		zap.String("manifest", path),
	)
	return nil
}

// openStore opens the table store, creating its directory.
func openStore(ctx context.Context) (*store.SQLiteStore, error) {
	path := dirs.Store()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrapf(err, "store: create directory for %s", path)
	}
	return store.Open(ctx, path)
}

// writeTables writes tables as CSV into outDir and mirrors them into the store.
func writeTables(ctx context.Context, st store.Store, m *manifest.Manifest, outDir string, tables []tabular.Table) error {
	written, err := tabular.WriteTables(ctx, outDir, tables)
	if err != nil {
		return err
	}
	for i, t := range tables {
		if err := st.WriteTable(ctx, t.StoreName(), t.Columns, t.Rows); err != nil {
			return err
		}
		m.Output(written[i], len(t.Rows))
	}
	return nil
}

// outDirFlag returns the --out-dir flag value or the derived directory.
func outDirFlag(cmd *cobra.Command) string {
	if dir, _ := cmd.Flags().GetString("out-dir"); dir != "" {
		return dir
	}
	return dirs.Derived
}

// inDirFlag returns the --in-dir flag value or the derived directory. Steps
// read earlier steps' outputs from it, so it must match the --out-dir those
// steps were given.
func inDirFlag(cmd *cobra.Command) string {
	if dir, _ := cmd.Flags().GetString("in-dir"); dir != "" {
		return dir
	}
	return dirs.Derived
}

// pathFlag returns the named flag value or fallback.
func pathFlag(cmd *cobra.Command, name, fallback string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return fallback
}
