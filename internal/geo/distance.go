// Package geo holds metro coordinates and great-circle distance helpers.
package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

// EarthRadiusKM is the mean Earth radius used by Haversine.
const EarthRadiusKM = 6371.0

// NewPoint returns a WGS84 point. go-geom stores XY, so longitude comes first.
func NewPoint(lat, lon float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326)
}

// Lat returns the latitude of p.
func Lat(p *geom.Point) float64 { return p.Y() }

// Lon returns the longitude of p.
func Lon(p *geom.Point) float64 { return p.X() }

// ValidCoords reports whether lat/lon lie within WGS84 bounds.
func ValidCoords(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 &&
		!math.IsNaN(lat) && !math.IsNaN(lon)
}

// HaversineKM returns the great-circle distance between a and b in kilometers.
func HaversineKM(a, b *geom.Point) float64 {
	lat1, lon1 := Lat(a), Lon(a)
	lat2, lon2 := Lat(b), Lon(b)

	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKM * c
}

// MeanPairwiseKM returns the mean haversine distance over all unordered
// pairs of points, or 0 when fewer than two points are given.
func MeanPairwiseKM(points []*geom.Point) float64 {
	if len(points) < 2 {
		return 0
	}
	var (
		sum   float64
		pairs int
	)
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			sum += HaversineKM(points[i], points[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}
