package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var samplePoints = []Coordinate{
	{Latitude: 28.6139, Longitude: 77.2090},
	{Latitude: 19.0760, Longitude: 72.8777},
	{Latitude: 51.5074, Longitude: -0.1278},
	{Latitude: -33.8688, Longitude: 151.2093},
	{Latitude: 0, Longitude: 0},
	{Latitude: 89.9, Longitude: 179.9},
}

func TestDistanceKM_Properties(t *testing.T) {
	for _, a := range samplePoints {
		assert.Equal(t, 0.0, DistanceKM(a, a))
		for _, b := range samplePoints {
			ab := DistanceKM(a, b)
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.InDelta(t, ab, DistanceKM(b, a), 1e-9)
			for _, c := range samplePoints {
				assert.LessOrEqual(t, DistanceKM(a, c), ab+DistanceKM(b, c)+1e-6)
			}
		}
	}
}

func TestDistanceKM_Known(t *testing.T) {
	delhi := Coordinate{Latitude: 28.6139, Longitude: 77.2090}
	mumbai := Coordinate{Latitude: 19.0760, Longitude: 72.8777}

	assert.InDelta(t, 1148, DistanceKM(delhi, mumbai), 5)
}

func TestCoordinate_IsValid(t *testing.T) {
	assert.True(t, Coordinate{Latitude: 90, Longitude: -180}.IsValid())
	assert.False(t, Coordinate{Latitude: 90.1, Longitude: 0}.IsValid())
	assert.False(t, Coordinate{Latitude: 0, Longitude: 180.5}.IsValid())
	assert.False(t, Coordinate{Latitude: math.NaN(), Longitude: 0}.IsValid())
	assert.False(t, Coordinate{Latitude: 0, Longitude: math.Inf(1)}.IsValid())
}
