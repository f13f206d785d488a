package concentration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geopanel/internal/tabular"
	"github.com/sells-group/geopanel/internal/transform"
)

func TestReadCZ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cz_hhi.csv")
	content := "cz,soc_code,year,quarter,hhi\n" +
		"100.0,11-1011,2019,1,0.25\n" +
		"200,15-1252,,2019Q3,0.5\n" +
		"300,11-1011,2019,5,0.1\n" + // bad quarter
		"400,xx,2019,1,0.1\n" + // bad soc
		"500,11-1011,2019,2,NA\n" // missing hhi
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows, bad, err := ReadCZ(path)
	require.NoError(t, err)
	assert.Equal(t, 3, bad)
	require.Len(t, rows, 2)

	assert.Equal(t, CZRow{CZ: "100", SOC4: "1110", Year: 2019, Quarter: 1, HHI: 0.25}, rows[0])
	assert.Equal(t, CZRow{CZ: "200", SOC4: "1512", Year: 2019, Quarter: 3, HHI: 0.5}, rows[1])
}

// The CZ file and the occupation panel must agree on the 4-digit code, or
// the HHI join silently matches nothing.
func TestReadCZJoinsPanelSOC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cz_hhi.csv")
	require.NoError(t, os.WriteFile(path, []byte("cz,soc_code,year,quarter,hhi\n100,11-1011,2019,1,0.3\n"), 0o644))

	rows, _, err := ReadCZ(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	panelSOC := transform.SOC4("111011")
	assert.Equal(t, "1110", rows[0].SOC4)
	assert.Equal(t, panelSOC, rows[0].SOC4)
}

func TestReadCZMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cz_hhi.csv")
	require.NoError(t, os.WriteFile(path, []byte("cz,year,hhi\n100,2019,0.3\n"), 0o644))

	_, _, err := ReadCZ(path)
	assert.Error(t, err)
}

func TestWriteAndReadCBSA(t *testing.T) {
	rows := []CBSARow{
		{CBSA: "12420", SOC4: "1110", Year: 2019, Quarter: 1, HHI: 0.4},
		{CBSA: "19740", SOC4: "1512", Year: 2019, Quarter: 2, HHI: 0.125},
	}
	path := filepath.Join(t.TempDir(), OutputFile(ModeLargest))
	require.NoError(t, tabular.WriteCSV(path, CBSAColumns, Rows(rows)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cbsa,soc4,year,quarter,hhi\n12420,1110,2019,1,0.4\n19740,1512,2019,2,0.125\n", string(data))

	got, err := ReadCBSA(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestOutputFile(t *testing.T) {
	assert.Equal(t, "cbsa_hhi_weighted.csv", OutputFile(ModeWeighted))
}
