package geo

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geopanel/internal/tabular"
	"github.com/sells-group/geopanel/internal/transform"
)

// LoadMetroCentroids reads a TIGER CBSA shapefile and returns one Metro per
// CBSA, located at the Census internal point (INTPTLAT/INTPTLON). Records
// without an internal point fall back to the center of the shape's bounding box.
func LoadMetroCentroids(shpPath string) ([]Metro, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	cbsaIdx := fieldIndex(reader, "CBSAFP")
	nameIdx := fieldIndex(reader, "NAME")
	latIdx := fieldIndex(reader, "INTPTLAT")
	lonIdx := fieldIndex(reader, "INTPTLON")
	if cbsaIdx < 0 || nameIdx < 0 {
		return nil, eris.New("geo: required shapefile fields (CBSAFP, NAME) not found")
	}

	log := zap.L().With(zap.String("component", "geo.centroid"))

	var (
		metros   []Metro
		skipped  int
		fallback int
	)
	for reader.Next() {
		_, shape := reader.Shape()

		cbsa := transform.NormalizeCBSA(attribute(reader, cbsaIdx))
		name := attribute(reader, nameIdx)
		if cbsa == "" || name == "" {
			skipped++
			continue
		}

		lat, okLat := tabular.ParseFloat(attribute(reader, latIdx))
		lon, okLon := tabular.ParseFloat(attribute(reader, lonIdx))
		if !okLat || !okLon || !ValidCoords(lat, lon) {
			if shape == nil {
				skipped++
				continue
			}
			box := shape.BBox()
			lat, lon = (box.MinY+box.MaxY)/2, (box.MinX+box.MaxX)/2
			fallback++
		}

		metros = append(metros, Metro{Name: name, CBSA: cbsa, Point: NewPoint(lat, lon)})
	}

	log.Info("CBSA centroids loaded",
		zap.Int("metros", len(metros)),
		zap.Int("skipped", skipped),
		zap.Int("bbox_fallback", fallback),
	)

	if len(metros) == 0 {
		return nil, eris.Wrapf(ErrNoMetros, "geo: %s", shpPath)
	}
	return metros, nil
}

// fieldIndex returns the index of a named field in the shapefile, or -1 if not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

func attribute(reader *shp.Reader, idx int) string {
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
}
