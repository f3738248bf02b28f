package aoi

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

var ErrInvalidGeometry = errors.New("invalid or missing geometry")

// AreaOfInterest is the user-selected region. It is immutable: changing the
// area means building a new value.
type AreaOfInterest struct {
	geometry orb.Geometry
	areaKm2  float64
	centroid orb.Point
}

// New validates the geometry and derives area and centroid.
func New(geometry orb.Geometry) (AreaOfInterest, error) {
	if geometry == nil {
		return AreaOfInterest{}, ErrInvalidGeometry
	}

	bound := geometry.Bound()
	if bound.Min.Lon() >= bound.Max.Lon() || bound.Min.Lat() >= bound.Max.Lat() {
		return AreaOfInterest{}, fmt.Errorf("%w: degenerate bounding box", ErrInvalidGeometry)
	}
	if bound.Min.Lon() < -180 || bound.Max.Lon() > 180 || bound.Min.Lat() < -90 || bound.Max.Lat() > 90 {
		return AreaOfInterest{}, fmt.Errorf("%w: coordinates outside WGS84 bounds", ErrInvalidGeometry)
	}

	areaM2 := math.Abs(geo.Area(geometry))
	if areaM2 <= 0 {
		return AreaOfInterest{}, fmt.Errorf("%w: zero area", ErrInvalidGeometry)
	}

	centroid, planarArea := planar.CentroidArea(geometry)
	if planarArea <= 0 {
		return AreaOfInterest{}, fmt.Errorf("%w: could not derive centroid", ErrInvalidGeometry)
	}

	return AreaOfInterest{
		geometry: geometry,
		areaKm2:  areaM2 / 1e6,
		centroid: centroid,
	}, nil
}

// FromGeoJSON builds an AOI from a raw GeoJSON geometry, feature or
// feature collection (first feature wins, matching the upload flow).
func FromGeoJSON(data []byte) (AreaOfInterest, error) {
	if g, err := geojson.UnmarshalGeometry(data); err == nil {
		return New(g.Geometry())
	}
	if f, err := geojson.UnmarshalFeature(data); err == nil && f.Geometry != nil {
		return New(f.Geometry)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return AreaOfInterest{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	for _, feature := range fc.Features {
		if feature.Geometry != nil {
			return New(feature.Geometry)
		}
	}
	return AreaOfInterest{}, fmt.Errorf("%w: feature collection has no geometry", ErrInvalidGeometry)
}

// FromBoundingBox builds a rectangular AOI from typed coordinates.
func FromBoundingBox(minLon, minLat, maxLon, maxLat float64) (AreaOfInterest, error) {
	ring := orb.Ring{
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
		{minLon, maxLat},
		{minLon, minLat},
	}
	return New(orb.Polygon{ring})
}

// FromBufferedPoint builds a square AOI of bufferKm half-width around a point.
func FromBufferedPoint(lon, lat, bufferKm float64) (AreaOfInterest, error) {
	if bufferKm <= 0 {
		return AreaOfInterest{}, fmt.Errorf("%w: buffer must be positive", ErrInvalidGeometry)
	}
	dLat := bufferKm / 111.32
	cos := math.Cos(lat * math.Pi / 180)
	if math.Abs(cos) < 1e-6 {
		return AreaOfInterest{}, fmt.Errorf("%w: point too close to a pole", ErrInvalidGeometry)
	}
	dLon := bufferKm / (111.32 * cos)
	return FromBoundingBox(lon-dLon, lat-dLat, lon+dLon, lat+dLat)
}

func (a AreaOfInterest) Geometry() orb.Geometry { return a.geometry }

func (a AreaOfInterest) AreaKm2() float64 { return a.areaKm2 }

// Centroid returns latitude, longitude.
func (a AreaOfInterest) Centroid() (float64, float64) {
	return a.centroid.Lat(), a.centroid.Lon()
}

func (a AreaOfInterest) Bound() orb.Bound { return a.geometry.Bound() }

// GeoJSON returns the geometry encoded for remote request payloads.
func (a AreaOfInterest) GeoJSON() ([]byte, error) {
	return geojson.NewGeometry(a.geometry).MarshalJSON()
}

func (a AreaOfInterest) IsZero() bool { return a.geometry == nil }
