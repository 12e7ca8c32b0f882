package models

import (
	"fmt"
	"math"

	"ambulance-dispatch/internal/utils"
)

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// IsValid reports whether the coordinate is finite and within ±90/±180.
func (c Coordinate) IsValid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) ||
		math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return utils.IsValidCoordinates(c.Latitude, c.Longitude)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// DistanceKM is the great-circle distance between a and b.
func DistanceKM(a, b Coordinate) float64 {
	return utils.CalculateDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}
