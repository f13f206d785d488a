package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

var _ Store = (*SQLiteStore)(nil)

// --- Tables ---

func TestSQLite_WriteAndReadTable(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	cols := []string{"companyname", "hhi_msa_2019"}
	rows := [][]string{{"Beta", "0.5"}, {"Acme", "1"}, {"Gamma", ""}}
	require.NoError(t, st.WriteTable(ctx, "firm_hhi_msa", cols, rows))

	gotCols, gotRows, err := st.ReadTable(ctx, "firm_hhi_msa")
	require.NoError(t, err)
	assert.Equal(t, cols, gotCols)
	// Insertion order is preserved; empty values come back empty.
	assert.Equal(t, rows, gotRows)
}

func TestSQLite_WriteTableOverwrites(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.WriteTable(ctx, "panel", []string{"a", "b"}, [][]string{{"1", "2"}, {"3", "4"}}))
	require.NoError(t, st.WriteTable(ctx, "panel", []string{"c"}, [][]string{{"x"}}))

	cols, rows, err := st.ReadTable(ctx, "panel")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, cols)
	assert.Equal(t, [][]string{{"x"}}, rows)
}

func TestSQLite_WriteTableShortRows(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.WriteTable(ctx, "short", []string{"a", "b", "c"}, [][]string{{"1"}}))
	_, rows, err := st.ReadTable(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "", ""}}, rows)
}

func TestSQLite_WriteTableEmpty(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.WriteTable(ctx, "empty", []string{"a"}, nil))
	cols, rows, err := st.ReadTable(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, cols)
	assert.Empty(t, rows)
}

func TestSQLite_InvalidTableName(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "Panel", "1panel", "_builds", "panel;drop", "panel-firm"} {
		assert.Error(t, st.WriteTable(ctx, name, []string{"a"}, nil), name)
		_, _, err := st.ReadTable(ctx, name)
		assert.Error(t, err, name)
	}
	assert.Error(t, st.WriteTable(ctx, "ok", nil, nil))
}

func TestSQLite_ReadMissingTable(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, _, err := st.ReadTable(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrTableNotFound))
}

func TestSQLite_Tables(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	names, err := st.Tables(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, st.WriteTable(ctx, "panel_firm_half", []string{"a"}, nil))
	require.NoError(t, st.WriteTable(ctx, "cz_cbsa_largest", []string{"a"}, nil))

	names, err = st.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cz_cbsa_largest", "panel_firm_half"}, names)
}

func TestSQLite_QuotedColumns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	cols := []string{"select", `odd"name`, "year"}
	require.NoError(t, st.WriteTable(ctx, "quoted", cols, [][]string{{"1", "2", "3"}}))
	gotCols, _, err := st.ReadTable(ctx, "quoted")
	require.NoError(t, err)
	assert.Equal(t, cols, gotCols)
}

// --- Builds ---

func TestSQLite_BuildLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	ok, err := st.StartBuild(ctx, "crosswalk")
	require.NoError(t, err)
	assert.NotEmpty(t, ok.ID)
	assert.Equal(t, BuildRunning, ok.Status)
	require.NoError(t, st.FinishBuild(ctx, ok.ID, 42, nil))

	bad, err := st.StartBuild(ctx, "footprint")
	require.NoError(t, err)
	require.NoError(t, st.FinishBuild(ctx, bad.ID, 0, errors.New("spells missing")))

	builds, err := st.ListBuilds(ctx, 0)
	require.NoError(t, err)
	require.Len(t, builds, 2)

	byID := map[string]Build{}
	for _, b := range builds {
		byID[b.ID] = b
	}
	assert.Equal(t, BuildSucceeded, byID[ok.ID].Status)
	assert.Equal(t, 42, byID[ok.ID].Rows)
	assert.NotNil(t, byID[ok.ID].FinishedAt)
	assert.Empty(t, byID[ok.ID].Error)

	assert.Equal(t, BuildFailed, byID[bad.ID].Status)
	assert.Equal(t, "spells missing", byID[bad.ID].Error)

	names, err := st.Tables(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSQLite_FinishUnknownBuild(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.FinishBuild(context.Background(), "missing", 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build not found")
}

func TestSQLite_ListBuildsLimit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := st.StartBuild(ctx, "panel")
		require.NoError(t, err)
	}
	builds, err := st.ListBuilds(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, builds, 2)
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("company_dispersion_2019"))
	assert.False(t, ValidName("company_dispersion_2019.csv"))
	assert.False(t, ValidName("_builds"))
}
