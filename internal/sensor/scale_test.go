package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdaptiveScale_LargeAreaBranches(t *testing.T) {
	assert.Equal(t, 30, AdaptiveScale(30, Landsat89))
	assert.Equal(t, 100, AdaptiveScale(150, Landsat89))
	assert.Equal(t, 500, AdaptiveScale(5000, Landsat89))
	assert.Equal(t, 2000, AdaptiveScale(15000, Landsat89))
	assert.Equal(t, 5000, AdaptiveScale(60000, Landsat89))
}

func TestAdaptiveScale_NeverFinerThanNative(t *testing.T) {
	for _, s := range All() {
		for _, area := range []float64{0.5, 30, 150, 5000, 15000, 60000, 1e6} {
			assert.GreaterOrEqual(t, AdaptiveScale(area, s), s.NativeScale(),
				"sensor %s area %f", s, area)
		}
	}
}

func TestAdaptiveScale_MonotonicInArea(t *testing.T) {
	areas := []float64{1, 50, 99, 101, 900, 1001, 9000, 10001, 49000, 50001, 1e6}
	for _, s := range All() {
		prev := 0
		for _, area := range areas {
			scale := AdaptiveScale(area, s)
			assert.GreaterOrEqual(t, scale, prev, "sensor %s area %f", s, area)
			prev = scale
		}
	}
}

func TestAdaptiveScale_MODISFloor(t *testing.T) {
	// MODIS native 250 m beats the 100 m small-medium floor.
	assert.Equal(t, 250, AdaptiveScale(150, MODIS))
	assert.Equal(t, 500, AdaptiveScale(1500, MODIS))
}

func TestParse(t *testing.T) {
	s, err := Parse("Landsat 8/9")
	assert.Nil(t, err)
	assert.Equal(t, Landsat89, s)

	_, err = Parse("Sentinel-9")
	assert.NotNil(t, err)
}

func TestSpec_BandsCoverIndexInputs(t *testing.T) {
	for _, s := range []Sensor{Sentinel2, Landsat89, Landsat57} {
		spec := s.Spec()
		for _, band := range []string{"blue", "green", "red", "nir", "swir1", "swir2"} {
			assert.NotEmpty(t, spec.Bands[band], "sensor %s band %s", s, band)
		}
	}
	assert.True(t, MODIS.Spec().PrecomputedIndices)
}
