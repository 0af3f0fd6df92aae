package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	// same point
	assert.InDelta(t, 0, DistanceMeters(12.9716, 77.5946, 12.9716, 77.5946), 0.001)

	// Bangalore city center to airport, roughly 32 km
	d := DistanceMeters(12.9716, 77.5946, 13.1986, 77.7066)
	assert.InDelta(t, 28_000, d, 4_000)

	// one degree of latitude is about 111 km
	d = DistanceMeters(0, 0, 1, 0)
	assert.InDelta(t, 111_195, d, 100)
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	a := DistanceMeters(12.9716, 77.5946, 13.1986, 77.7066)
	b := DistanceMeters(13.1986, 77.7066, 12.9716, 77.5946)
	assert.InDelta(t, a, b, 0.0001)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(0, 0))
	assert.True(t, ValidCoordinates(-90, -180))
	assert.True(t, ValidCoordinates(90, 180))
	assert.False(t, ValidCoordinates(90.1, 0))
	assert.False(t, ValidCoordinates(-90.1, 0))
	assert.False(t, ValidCoordinates(0, 180.1))
	assert.False(t, ValidCoordinates(0, -180.1))
}
