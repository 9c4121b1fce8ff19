package geo

import (
	"math"

	"tero/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// DefaultSpeedKmh is the average ambulance speed assumed for ETA estimates in
// city traffic.
const DefaultSpeedKmh = 30.0

// Haversine returns the great-circle distance between two points in kilometers.
func Haversine(a, b models.Location) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// ETA estimates travel time in minutes for a distance at the given speed. A
// non-positive speed selects DefaultSpeedKmh.
func ETA(distanceKm, speedKmh float64) float64 {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}
	return distanceKm / speedKmh * 60
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
