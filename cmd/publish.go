package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geopanel/internal/db"
	"github.com/sells-group/geopanel/internal/store"
)

var publishCmd = &cobra.Command{
	Use:   "publish <table>...",
	Short: "Copy store tables to Postgres",
	Long: "Replaces each named table in the configured Postgres schema with the contents of the local store. " +
		"Requires publish.database_url (GEOPANEL_PUBLISH_DATABASE_URL).",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		schema, _ := cmd.Flags().GetString("schema")
		if schema == "" {
			schema = cfg.Publish.Schema
		}
		if !store.ValidName(schema) {
			return eris.Errorf("publish: invalid schema %q", schema)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		pool, err := db.Connect(ctx, cfg.Publish.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		for _, name := range args {
			cols, rows, err := st.ReadTable(ctx, name)
			if err != nil {
				return err
			}
			n, err := db.Publish(ctx, pool, schema, name, cols, rows)
			if err != nil {
				return eris.Wrapf(err, "publish %s", name)
			}
			rec.AddRows("publish", "copied", int(n))
			zap.L().Info("table published", zap.String("schema", schema), zap.String("table", name), zap.Int64("rows", n))
			fmt.Printf("%s.%s: %d rows\n", schema, name, n)
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().String("schema", "", "target Postgres schema (default publish.schema)")
	rootCmd.AddCommand(publishCmd)
}
