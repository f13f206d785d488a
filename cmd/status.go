package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geopanel/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent build history",
	Long:  "Displays the most recent build steps recorded in the local store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		builds, err := st.ListBuilds(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "status")
		}
		if len(builds) == 0 {
			zap.L().Info("no builds recorded, run 'geopanel build crosswalk' to start")
			return nil
		}

		formatBuilds(os.Stdout, builds)
		return nil
	},
}

func init() {
	statusCmd.Flags().Int("limit", 20, "number of builds to show")
	rootCmd.AddCommand(statusCmd)
}

// formatBuilds writes a tabular representation of builds to out.
func formatBuilds(out io.Writer, builds []store.Build) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTEP\tSTATUS\tSTARTED\tDURATION\tROWS\tERROR")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-------\t--------\t----\t-----")

	for _, b := range builds {
		dur := "-"
		if b.FinishedAt != nil {
			dur = b.FinishedAt.Sub(b.StartedAt).Round(time.Second).String()
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			shortID(b.ID),
			b.Step,
			b.Status,
			b.StartedAt.Format("2006-01-02 15:04"),
			dur,
			b.Rows,
			truncate(b.Error, 60),
		)
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
