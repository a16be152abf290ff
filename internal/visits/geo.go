package visits

import (
	"math"

	"fieldsync/internal/canvass/models"
)

// EarthRadiusMeters is the mean radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b models.Geo) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
