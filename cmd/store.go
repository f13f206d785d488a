package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geopanel/internal/store"
	"github.com/sells-group/geopanel/internal/tabular"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and load the local table store",
}

var storeImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a CSV into a store table",
	Long: "Replaces a store table with the contents of a CSV file. Used for inputs such as firm_attributes " +
		"that the panel step can read from the store instead of the raw directory.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		csvPath, _ := cmd.Flags().GetString("csv")
		table, _ := cmd.Flags().GetString("table")
		if table == "" {
			table = strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath))
		}
		if !store.ValidName(table) {
			return eris.Errorf("store import: invalid table name %q", table)
		}

		cols, rows, err := readRawCSV(csvPath)
		if err != nil {
			return eris.Wrap(err, "store import")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.WriteTable(ctx, table, cols, rows); err != nil {
			return err
		}
		rec.AddRows("import", "loaded", len(rows))

		zap.L().Info("import complete",
			zap.String("table", table),
			zap.Int("rows", len(rows)),
			zap.String("csv", csvPath),
		)
		return nil
	},
}

var storeTablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List store tables with row counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		names, err := st.Tables(ctx)
		if err != nil {
			return err
		}
		counts := make([]int, len(names))
		for i, name := range names {
			_, rows, err := st.ReadTable(ctx, name)
			if err != nil {
				return err
			}
			counts[i] = len(rows)
		}
		formatTables(os.Stdout, names, counts)
		return nil
	},
}

// readRawCSV reads a CSV for the store. Column names are normalized the way
// every reader normalizes them; duplicate or unnamed columns are rejected.
func readRawCSV(path string) ([]string, [][]string, error) {
	header, rows, err := tabular.ReadCSVFile(path, tabular.CSVOptions{})
	if err != nil {
		return nil, nil, err
	}
	width := 0
	for _, idx := range header {
		width = max(width, idx+1)
	}
	cols := make([]string, width)
	for name, idx := range header {
		cols[idx] = name
	}
	for i, c := range cols {
		if !store.ValidName(c) {
			return nil, nil, eris.Errorf("column %d of %s has no usable name", i+1, path)
		}
	}
	return cols, rows, nil
}

func formatTables(out io.Writer, names []string, counts []int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TABLE\tROWS")
	for i, name := range names {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", name, counts[i])
	}
	_ = w.Flush()
}

func init() {
	storeImportCmd.Flags().String("csv", "", "path to CSV file (required)")
	_ = storeImportCmd.MarkFlagRequired("csv")
	storeImportCmd.Flags().String("table", "", "store table name (default CSV base name)")
	storeCmd.AddCommand(storeImportCmd, storeTablesCmd)
	rootCmd.AddCommand(storeCmd)
}
