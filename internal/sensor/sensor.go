package sensor

import "fmt"

// Sensor identifies a supported satellite platform.
type Sensor int

const (
	Sentinel2 Sensor = iota
	Landsat89
	Landsat57
	MODIS
)

var displayNames = map[Sensor]string{
	Sentinel2: "Sentinel-2",
	Landsat89: "Landsat 8/9",
	Landsat57: "Landsat 5/7",
	MODIS:     "MODIS",
}

// Spec describes how a sensor is queried and scaled.
type Spec struct {
	NativeResolution int
	Collections      []string
	CloudProperty    string
	// Bands maps the canonical band names used by index formulas to the
	// sensor's own band identifiers. MODIS ships precomputed indices
	// instead of raw reflectance bands.
	Bands              map[string]string
	PrecomputedIndices bool
	// Reflectance scaling applied after cloud masking, per the collection's
	// surface reflectance conventions.
	ScaleFactor float64
	ScaleOffset float64
}

var specs = map[Sensor]Spec{
	Sentinel2: {
		NativeResolution: 10,
		Collections:      []string{"sentinel-2-l2a"},
		CloudProperty:    "eo:cloud_cover",
		Bands: map[string]string{
			"blue": "B02", "green": "B03", "red": "B04",
			"nir": "B08", "swir1": "B11", "swir2": "B12",
		},
		ScaleFactor: 1.0 / 10000.0,
	},
	Landsat89: {
		NativeResolution: 30,
		Collections:      []string{"landsat-ot-l2"},
		CloudProperty:    "eo:cloud_cover",
		Bands: map[string]string{
			"blue": "B02", "green": "B03", "red": "B04",
			"nir": "B05", "swir1": "B06", "swir2": "B07",
		},
		ScaleFactor: 0.0000275,
		ScaleOffset: -0.2,
	},
	Landsat57: {
		NativeResolution: 30,
		Collections:      []string{"landsat-tm-l2", "landsat-etm-l2"},
		CloudProperty:    "eo:cloud_cover",
		Bands: map[string]string{
			"blue": "B01", "green": "B02", "red": "B03",
			"nir": "B04", "swir1": "B05", "swir2": "B07",
		},
		ScaleFactor: 0.0000275,
		ScaleOffset: -0.2,
	},
	MODIS: {
		NativeResolution:   250,
		Collections:        []string{"modis-13q1"},
		CloudProperty:      "",
		Bands:              map[string]string{"ndvi": "NDVI", "evi": "EVI"},
		PrecomputedIndices: true,
		ScaleFactor:        0.0001,
	},
}

// All lists the supported sensors in menu order.
func All() []Sensor {
	return []Sensor{Sentinel2, Landsat89, Landsat57, MODIS}
}

// Parse resolves a sensor display name.
func Parse(name string) (Sensor, error) {
	for s, display := range displayNames {
		if display == name {
			return s, nil
		}
	}
	return Sentinel2, fmt.Errorf("unknown sensor: %s", name)
}

func (s Sensor) String() string {
	if name, ok := displayNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Sensor) Spec() Spec {
	return specs[s]
}

// NativeScale returns the sensor's ground sampling distance in meters.
func (s Sensor) NativeScale() int {
	if spec, ok := specs[s]; ok {
		return spec.NativeResolution
	}
	return 30
}
