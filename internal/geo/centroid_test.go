package geo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cbsaRecord struct {
	code, name, lat, lon string
	ring                 []shp.Point
}

func square(minX, minY, maxX, maxY float64) []shp.Point {
	return []shp.Point{
		{X: minX, Y: minY},
		{X: minX, Y: maxY},
		{X: maxX, Y: maxY},
		{X: maxX, Y: minY},
		{X: minX, Y: minY},
	}
}

func createCBSAShapefile(t *testing.T, records []cbsaRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tl_2024_us_cbsa.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("CBSAFP", 5),
		shp.StringField("NAME", 60),
		shp.StringField("INTPTLAT", 11),
		shp.StringField("INTPTLON", 12),
	}))

	for _, r := range records {
		poly := &shp.Polygon{
			Box:       shp.BBoxFromPoints(r.ring),
			NumParts:  1,
			NumPoints: int32(len(r.ring)),
			Parts:     []int32{0},
			Points:    r.ring,
		}
		idx := int(w.Write(poly))
		require.NoError(t, w.WriteAttribute(idx, 0, r.code))
		require.NoError(t, w.WriteAttribute(idx, 1, r.name))
		require.NoError(t, w.WriteAttribute(idx, 2, r.lat))
		require.NoError(t, w.WriteAttribute(idx, 3, r.lon))
	}
	w.Close()

	// go-shp v0.1.1 writes the attribute table as "<base>dbf".
	base := strings.TrimSuffix(path, ".shp")
	if _, err := os.Stat(base + "dbf"); err == nil {
		require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	}
	return path
}

func TestLoadMetroCentroids(t *testing.T) {
	path := createCBSAShapefile(t, []cbsaRecord{
		{"12420", "Austin-Round Rock-San Marcos, TX", "+30.2626", "-097.6574", square(-98.5, 29.6, -97.0, 30.9)},
		{"19740", "Denver-Aurora-Centennial, CO", "", "", square(-106, 39, -104, 40)},
		{"", "Unnamed", "+1.0", "+1.0", square(0, 0, 1, 1)},
	})

	require.FileExists(t, strings.TrimSuffix(path, ".shp")+".dbf")

	metros, err := LoadMetroCentroids(path)
	require.NoError(t, err)
	require.Len(t, metros, 2)

	assert.Equal(t, "12420", metros[0].CBSA)
	assert.Equal(t, "Austin-Round Rock-San Marcos, TX", metros[0].Name)
	assert.InDelta(t, 30.2626, Lat(metros[0].Point), 1e-6)
	assert.InDelta(t, -97.6574, Lon(metros[0].Point), 1e-6)

	// Missing internal point falls back to the bounding-box center.
	assert.Equal(t, "19740", metros[1].CBSA)
	assert.InDelta(t, 39.5, Lat(metros[1].Point), 1e-9)
	assert.InDelta(t, -105.0, Lon(metros[1].Point), 1e-9)
}

func TestLoadMetroCentroids_MissingFile(t *testing.T) {
	_, err := LoadMetroCentroids(filepath.Join(t.TempDir(), "missing.shp"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geo: open shapefile")
}
