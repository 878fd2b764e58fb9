package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkerSize(t *testing.T) {
	assert.Equal(t, 32, MarkerSize(12, false))
	assert.Equal(t, MinMarkerSize, MarkerSize(0, false))
	assert.Equal(t, MaxMarkerSize, MarkerSize(20, false))
	assert.Equal(t, 42, MarkerSize(12, true))
}

func TestMarkerZ(t *testing.T) {
	assert.Equal(t, HoveredMarkerZIndex, MarkerZ(true))
	assert.Equal(t, MarkerZIndex, MarkerZ(false))
}

func TestGeohashPrecision(t *testing.T) {
	assert.Equal(t, uint(3), GeohashPrecision(7))
	assert.Equal(t, uint(5), GeohashPrecision(12))
	assert.Equal(t, uint(7), GeohashPrecision(16))
}
