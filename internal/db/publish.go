package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Publish replaces schema.table with columns and rows in one transaction.
// Every column is created as TEXT; the estimation tool casts on read. The
// transaction is replayed from scratch on transient connection errors.
func Publish(ctx context.Context, pool Pool, schema, table string, columns []string, rows [][]string) (int64, error) {
	if schema == "" || table == "" {
		return 0, eris.New("db: publish: schema and table are required")
	}
	if len(columns) == 0 {
		return 0, eris.Errorf("db: publish: %s has no columns", table)
	}

	var n int64
	err := retry(ctx, DefaultRetry, "publish "+table, func(ctx context.Context) error {
		var err error
		n, err = publishOnce(ctx, pool, schema, table, columns, rows)
		return err
	})
	return n, err
}

func publishOnce(ctx context.Context, pool Pool, schema, table string, columns []string, rows [][]string) (int64, error) {
	target := pgx.Identifier{schema, table}.Sanitize()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: publish: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stmts := []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{schema}.Sanitize()),
		fmt.Sprintf("DROP TABLE IF EXISTS %s", target),
		fmt.Sprintf("CREATE TABLE %s (%s)", target, columnDefs(columns)),
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return 0, eris.Wrapf(err, "db: publish: %s", stmt)
		}
	}

	n, err := CopyFromSchema(ctx, tx, schema, table, columns, TextRows(rows, len(columns)))
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: publish: commit tx")
	}

	zap.L().Info("db: table published",
		zap.String("schema", schema),
		zap.String("table", table),
		zap.Int("rows", len(rows)),
		zap.Int64("copied", n),
	)
	return n, nil
}

func columnDefs(cols []string) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = pgx.Identifier{c}.Sanitize() + " TEXT"
	}
	return strings.Join(defs, ", ")
}
