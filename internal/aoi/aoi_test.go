package aoi

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func squarePolygon(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
		{minLon, maxLat},
		{minLon, minLat},
	}}
}

func TestNew_DerivesAreaAndCentroid(t *testing.T) {
	// Roughly 1 degree square at the equator, ~12300 km2.
	a, err := New(squarePolygon(-0.5, -0.5, 0.5, 0.5))
	assert.Nil(t, err)
	assert.InDelta(t, 12300, a.AreaKm2(), 150)

	lat, lon := a.Centroid()
	assert.InDelta(t, 0, lat, 1e-9)
	assert.InDelta(t, 0, lon, 1e-9)
}

func TestNew_NilGeometry(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestNew_DegenerateBoundingBox(t *testing.T) {
	_, err := New(squarePolygon(10, 10, 10, 11))
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestNew_OutOfBoundsCoordinates(t *testing.T) {
	_, err := New(squarePolygon(170, 10, 190, 11))
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestFromGeoJSON_Geometry(t *testing.T) {
	data := []byte(`{"type":"Polygon","coordinates":[[[-54.5,-20.5],[-54.0,-20.5],[-54.0,-20.0],[-54.5,-20.0],[-54.5,-20.5]]]}`)
	a, err := FromGeoJSON(data)
	assert.Nil(t, err)
	assert.Greater(t, a.AreaKm2(), 0.0)
}

func TestFromGeoJSON_FeatureCollection(t *testing.T) {
	data := []byte(`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}]}`)
	a, err := FromGeoJSON(data)
	assert.Nil(t, err)
	assert.False(t, a.IsZero())
}

func TestFromGeoJSON_Garbage(t *testing.T) {
	_, err := FromGeoJSON([]byte(`not geojson`))
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestFromBufferedPoint(t *testing.T) {
	a, err := FromBufferedPoint(-54.2, -20.3, 5)
	assert.Nil(t, err)
	// 10 km x 10 km square.
	assert.InDelta(t, 100, a.AreaKm2(), 5)

	lat, lon := a.Centroid()
	assert.InDelta(t, -20.3, lat, 1e-6)
	assert.InDelta(t, -54.2, lon, 1e-6)
}

func TestFromBufferedPoint_InvalidBuffer(t *testing.T) {
	_, err := FromBufferedPoint(0, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}
