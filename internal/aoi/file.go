package aoi

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/airbusgeo/godal"
)

// FromFile loads an AOI from a GeoJSON or shapefile upload. GeoJSON is
// decoded directly; anything else goes through the OGR drivers.
func FromFile(path string) (AreaOfInterest, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return AreaOfInterest{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return FromGeoJSON(data)
	default:
		return fromVectorFile(path)
	}
}

func fromVectorFile(path string) (AreaOfInterest, error) {
	godal.RegisterInternalDrivers()
	ds, err := godal.Open(path)
	if err != nil {
		return AreaOfInterest{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return AreaOfInterest{}, fmt.Errorf("%w: %s has no layers", ErrInvalidGeometry, path)
	}

	layer := layers[0]
	for {
		feat := layer.NextFeature()
		if feat == nil {
			break
		}
		geom := feat.Geometry()
		if geom == nil {
			feat.Close()
			continue
		}
		raw, err := geom.GeoJSON()
		feat.Close()
		if err != nil {
			return AreaOfInterest{}, fmt.Errorf("failed to export geometry to GeoJSON: %w", err)
		}
		return FromGeoJSON([]byte(raw))
	}

	return AreaOfInterest{}, fmt.Errorf("%w: no feature with geometry in %s", ErrInvalidGeometry, path)
}
