package tabular

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// WriteCSV writes header and rows to path, replacing any existing file. The
// data lands in a temp file in the same directory first and is renamed into
// place, so readers never observe a partial file.
func WriteCSV(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "csv: create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "csv: create temp for %s", path)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "csv: write header %s", path)
	}
	for i, row := range rows {
		if err := w.Write(row); err != nil {
			_ = tmp.Close()
			return eris.Wrapf(err, "csv: write record %d of %s", i, path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "csv: flush %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "csv: close %s", path)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return eris.Wrapf(err, "csv: chmod %s", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return eris.Wrapf(err, "csv: rename into %s", path)
	}
	return nil
}

// Table is one named output file held in memory.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// StoreName returns the table name without its file extension.
func (t Table) StoreName() string {
	return strings.TrimSuffix(t.Name, filepath.Ext(t.Name))
}

// WriteTables writes every table into dir concurrently and returns the
// written paths in table order. Tables must have distinct names.
func WriteTables(ctx context.Context, dir string, tables []Table) ([]string, error) {
	g, _ := errgroup.WithContext(ctx)
	paths := make([]string, len(tables))
	for i, t := range tables {
		paths[i] = filepath.Join(dir, t.Name)
		g.Go(func() error {
			return WriteCSV(paths[i], t.Columns, t.Rows)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
