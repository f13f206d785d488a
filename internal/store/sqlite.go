package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Open opens the store at path and applies the migration.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	s, err := NewSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// Bookkeeping tables start with an underscore, which ValidName rejects, so
// they never collide with data tables.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS _builds (
	id          TEXT PRIMARY KEY,
	step        TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	rows        INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_builds_step ON _builds(step);
CREATE INDEX IF NOT EXISTS idx_builds_started_at ON _builds(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WriteTable replaces table name with columns and rows in one transaction.
// Every column is TEXT; empty strings are stored as NULL.
func (s *SQLiteStore) WriteTable(ctx context.Context, name string, columns []string, rows [][]string) error {
	if !ValidName(name) {
		return eris.Errorf("sqlite: invalid table name %q", name)
	}
	if len(columns) == 0 {
		return eris.Errorf("sqlite: table %s has no columns", name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return eris.Wrapf(err, "sqlite: drop table %s", name)
	}

	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c) + " TEXT"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return eris.Wrapf(err, "sqlite: create table %s", name)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), placeholders))
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare insert %s", name)
	}
	defer stmt.Close() //nolint:errcheck

	args := make([]any, len(columns))
	for i, row := range rows {
		for j := range columns {
			if j < len(row) && row[j] != "" {
				args[j] = row[j]
			} else {
				args[j] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return eris.Wrapf(err, "sqlite: insert row %d into %s", i, name)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// ReadTable returns the columns and rows of table name in insertion order.
func (s *SQLiteStore) ReadTable(ctx context.Context, name string) ([]string, [][]string, error) {
	if !ValidName(name) {
		return nil, nil, eris.Errorf("sqlite: invalid table name %q", name)
	}
	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, eris.Wrapf(ErrTableNotFound, "sqlite: %s", name)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(name)+" ORDER BY rowid")
	if err != nil {
		return nil, nil, eris.Wrapf(err, "sqlite: query %s", name)
	}
	defer rows.Close() //nolint:errcheck

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, eris.Wrapf(err, "sqlite: columns %s", name)
	}

	var out [][]string
	vals := make([]sql.NullString, len(columns))
	ptrs := make([]any, len(columns))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, eris.Wrapf(err, "sqlite: scan %s", name)
		}
		rec := make([]string, len(columns))
		for i, v := range vals {
			if v.Valid {
				rec[i] = v.String
			}
		}
		out = append(out, rec)
	}
	return columns, out, eris.Wrapf(rows.Err(), "sqlite: iterate %s", name)
}

// Tables lists the data tables in the store, sorted.
func (s *SQLiteStore) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tables")
	}
	defer rows.Close() //nolint:errcheck

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan table name")
		}
		if ValidName(name) && !strings.HasPrefix(name, "sqlite_") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, eris.Wrap(rows.Err(), "sqlite: iterate tables")
}

func (s *SQLiteStore) tableExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: lookup table %s", name)
	}
	return n > 0, nil
}

func (s *SQLiteStore) StartBuild(ctx context.Context, step string) (*Build, error) {
	b := &Build{
		ID:        uuid.New().String(),
		Step:      step,
		Status:    BuildRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO _builds (id, step, status, started_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.Step, string(b.Status), b.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert build %s", step)
	}
	return b, nil
}

// FinishBuild marks a build succeeded, or failed when buildErr is non-nil.
func (s *SQLiteStore) FinishBuild(ctx context.Context, id string, rows int, buildErr error) error {
	status := BuildSucceeded
	var errText sql.NullString
	if buildErr != nil {
		status = BuildFailed
		errText = sql.NullString{String: buildErr.Error(), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE _builds SET status = ?, rows = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), rows, errText, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish build %s", id)
	}
	return checkRowsAffected(res, "build", id)
}

// ListBuilds returns the most recent builds first. limit <= 0 means 50.
func (s *SQLiteStore) ListBuilds(ctx context.Context, limit int) ([]Build, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, step, status, rows, error, started_at, finished_at
		 FROM _builds ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list builds")
	}
	defer rows.Close() //nolint:errcheck

	var builds []Build
	for rows.Next() {
		var (
			b        Build
			status   string
			errText  sql.NullString
			finished sql.NullTime
		)
		if err := rows.Scan(&b.ID, &b.Step, &status, &b.Rows, &errText, &b.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan build")
		}
		b.Status = BuildStatus(status)
		b.Error = errText.String
		if finished.Valid {
			t := finished.Time
			b.FinishedAt = &t
		}
		builds = append(builds, b)
	}
	return builds, eris.Wrap(rows.Err(), "sqlite: iterate builds")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
