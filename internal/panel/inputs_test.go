package panel

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geopanel/internal/concentration"
	"github.com/sells-group/geopanel/internal/tabular"
)

func readCSV(t *testing.T, content string) (tabular.Header, [][]string) {
	t.Helper()
	h, rows, err := tabular.ReadCSV(strings.NewReader(content), tabular.CSVOptions{})
	require.NoError(t, err)
	return h, rows
}

func TestParseHeadcount(t *testing.T) {
	h, rows := readCSV(t, "companyname,year,half,headcount\nAcme,2019,1,3\nAcme,2019,3,4\n,2019,1,2\nBeta,2019,2,x\n")
	got, err := ParseHeadcount(h, rows, false)
	require.NoError(t, err)
	assert.Equal(t, []Headcount{{Firm: "Acme", Half: hy(2019, 1), Count: 3}}, got)

	_, err = ParseHeadcount(h, rows, true)
	assert.Error(t, err, "soc4 column required at occupation level")
}

func TestParseHeadcountOcc(t *testing.T) {
	h, rows := readCSV(t, "companyname,soc4,year,half,headcount\nAcme,1512,2019,1,3\nAcme,,2019,1,1\n")
	got, err := ParseHeadcount(h, rows, true)
	require.NoError(t, err)
	assert.Equal(t, []Headcount{{Firm: "Acme", SOC4: "1512", Half: hy(2019, 1), Count: 3}}, got)
}

func TestParseAttributes(t *testing.T) {
	h, rows := readCSV(t, "CompanyName,Founded,Teleworkable,Flexibility_Score\n"+
		"Acme Corp,2015,0.4,0.8\n"+
		"ACME  corp,1900,0,0\n"+
		"Beta,,0.1,NA\n")
	got, err := ParseAttributes(h, rows)
	require.NoError(t, err)
	require.Len(t, got, 2)

	acme := got["acme corp"]
	assert.Equal(t, "Acme Corp", acme.Firm)
	assert.Equal(t, 2015.0, acme.Founded)
	assert.Equal(t, 0.8, acme.Flexibility)

	beta := got["beta"]
	assert.True(t, math.IsNaN(beta.Founded))
	assert.True(t, math.IsNaN(beta.Flexibility))
	assert.Equal(t, 0.1, beta.Teleworkable)

	h, rows = readCSV(t, "name,founded\nAcme,2015\n")
	_, err = ParseAttributes(h, rows)
	assert.Error(t, err)
}

func TestParseTopMetros(t *testing.T) {
	h, rows := readCSV(t, "companyname,year,half,cbsacode,msa,spell_count\nAcme,2019,1,12420,Austin,2\n")
	got, err := ParseTopMetros(h, rows)
	require.NoError(t, err)
	assert.Equal(t, map[halfKey]string{{firm: "acme", half: hy(2019, 1)}: "12420"}, got)
}

func TestParseDispersion(t *testing.T) {
	h, rows := readCSV(t, "companyname,year,half,filtered_msa_cnt,avgdist_km\n"+
		"Acme,2019,1,2,1000\n"+
		"Acme,2019,2,4,2000\n"+
		"Beta,2019,1,0,0\n")
	got, err := ParseDispersion(h, rows)
	require.NoError(t, err)
	assert.Equal(t, Dispersion{CoreCount: 3, AvgDistKM: 1500}, got["acme"])
	assert.Equal(t, Dispersion{}, got["beta"])
}

func TestParseFirmHHI(t *testing.T) {
	h, rows := readCSV(t, "companyname,hhi_msa_2019\nAcme,0.5\nBeta,\n")
	got, err := ParseFirmHHI(h, rows)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"acme": 0.5}, got)

	h, rows = readCSV(t, "companyname,hhi\nAcme,0.5\n")
	_, err = ParseFirmHHI(h, rows)
	assert.Error(t, err)
}

func TestCBSAHalfHHI(t *testing.T) {
	got := CBSAHalfHHI([]concentration.HalfRow{{CBSA: "12420", SOC4: "1512", Year: 2019, Half: 2, HHI: 0.3}})
	assert.Equal(t, 0.3, got[cbsaKey{cbsa: "12420", soc4: "1512", half: hy(2019, 2)}])
}
