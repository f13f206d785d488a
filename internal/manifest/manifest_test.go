package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRead(t *testing.T) {
	m := New("footprint")
	m.Input("raw/spells.csv")
	m.Input("raw/msa_enrichment.csv")
	m.Output("derived/firm_hhi_msa.csv", 2)
	m.Output("derived/company_top_msa_by_half.csv", 5)
	m.Set("chunk_rows", 1000)
	m.Diagnose(map[string]int{"unknown_msa": 3, "end_filled": 1})

	dir := t.TempDir()
	path, err := m.Write(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "footprint.manifest.yaml"), path)

	got, err := Read(path)
	require.NoError(t, err)

	_, err = uuid.Parse(got.RunID)
	assert.NoError(t, err)
	assert.Equal(t, "footprint", got.Step)
	assert.Equal(t, []string{"raw/msa_enrichment.csv", "raw/spells.csv"}, got.Inputs)
	assert.Equal(t, "derived/company_top_msa_by_half.csv", got.Outputs[0].Path)
	assert.Equal(t, 7, got.TotalRows())
	assert.Equal(t, 3, got.Diagnostics["unknown_msa"])
	assert.Equal(t, 1000, got.Settings["chunk_rows"])
	assert.False(t, got.FinishedAt.Before(got.StartedAt))
}

func TestNewUniqueRunIDs(t *testing.T) {
	assert.NotEqual(t, New("a").RunID, New("a").RunID)
}

func TestReadErrors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("step: [unclosed"), 0o644))
	_, err = Read(bad)
	assert.Error(t, err)
}
