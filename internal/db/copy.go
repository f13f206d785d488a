// Package db publishes derived tables into Postgres for the estimation step.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// copier is satisfied by both Pool and pgx.Tx.
type copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// CopyFromSchema bulk-inserts rows into a schema-qualified table using PostgreSQL COPY protocol.
func CopyFromSchema(ctx context.Context, c copier, schema, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	copySource := pgx.CopyFromRows(rows)
	n, err := c.CopyFrom(ctx, pgx.Identifier{schema, table}, columns, copySource)
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s.%s", schema, table)
	}

	return n, nil
}

// TextRows converts string rows for COPY, sending empty strings as NULL.
func TextRows(rows [][]string, width int) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		rec := make([]any, width)
		for j := 0; j < width; j++ {
			if j < len(row) && row[j] != "" {
				rec[j] = row[j]
			}
		}
		out[i] = rec
	}
	return out
}
