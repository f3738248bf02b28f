package sentinelhub

import (
	"fmt"
	"strings"

	"github.com/agriscope/agriscope/internal/index"
	"github.com/agriscope/agriscope/internal/sensor"
)

// indexExpression renders the band math for one index as evalscript
// JavaScript over canonical band variables. The soil factor only matters for
// SAVI.
func indexExpression(idx index.Index) string {
	switch idx {
	case index.EVI:
		return "2.5 * (nir - red) / (nir + 6.0 * red - 7.5 * blue + 1.0)"
	case index.SAVI:
		return fmt.Sprintf("%.1f * (nir - red) / (nir + red + %.1f)", 1+index.DefaultSoilFactor, index.DefaultSoilFactor)
	case index.NDWI:
		return "(green - nir) / (green + nir)"
	case index.NDMI:
		return "(nir - swir1) / (nir + swir1)"
	case index.GNDVI:
		return "(nir - green) / (nir + green)"
	case index.NBR:
		return "(nir - swir2) / (nir + swir2)"
	default:
		return "(nir - red) / (nir + red)"
	}
}

// maskExpression renders the per-sample validity test for a sensor, true
// when the sample is usable.
func maskExpression(s sensor.Sensor) string {
	switch s {
	case sensor.Sentinel2:
		// SCL cloud shadow, cloud and cirrus classes.
		return "sample.SCL != 3 && sample.SCL != 9 && sample.SCL != 10"
	case sensor.Landsat89, sensor.Landsat57:
		// QA_PIXEL cloud and cloud shadow bits.
		return "(sample.BQA & (1 << 3)) == 0 && (sample.BQA & (1 << 4)) == 0"
	default:
		return "true"
	}
}

func maskBand(s sensor.Sensor) string {
	switch s {
	case sensor.Sentinel2:
		return "SCL"
	case sensor.Landsat89, sensor.Landsat57:
		return "BQA"
	default:
		return ""
	}
}

func inputBands(spec sensor.Spec, s sensor.Sensor, idx index.Index) []string {
	if spec.PrecomputedIndices {
		name := "NDVI"
		if idx == index.EVI {
			name = "EVI"
		}
		return []string{name, "dataMask"}
	}

	bands := []string{
		spec.Bands["blue"], spec.Bands["green"], spec.Bands["red"],
		spec.Bands["nir"], spec.Bands["swir1"], spec.Bands["swir2"],
	}
	if mask := maskBand(s); mask != "" {
		bands = append(bands, mask)
	}
	return append(bands, "dataMask")
}

func bandAssignments(spec sensor.Spec) string {
	var b strings.Builder
	for _, canonical := range []string{"blue", "green", "red", "nir", "swir1", "swir2"} {
		fmt.Fprintf(&b, "  let %s = sample.%s * %g + %g;\n",
			canonical, spec.Bands[canonical], spec.ScaleFactor, spec.ScaleOffset)
	}
	return b.String()
}

// Evalscript builds the remote script computing one index for one sensor,
// collapsing the scenes in the request's time range with the given
// aggregation. Output band "default" carries the index, "dataMask" the
// validity mask used by the statistics endpoint.
func Evalscript(s sensor.Sensor, idx index.Index, agg Aggregation) string {
	spec := s.Spec()
	bands := quoteList(inputBands(spec, s, idx))

	if spec.PrecomputedIndices {
		name := "NDVI"
		if idx == index.EVI {
			name = "EVI"
		}
		return fmt.Sprintf(`//VERSION=3
function setup() {
  return {
    input: [%s],
    output: [
      { id: "default", bands: 1, sampleType: "FLOAT32" },
      { id: "dataMask", bands: 1 }
    ],
    mosaicking: "%s"
  };
}

function evaluatePixel(samples) {
  let values = [];
  for (let sample of samples) {
    if (sample.dataMask == 0) continue;
    values.push(sample.%s * %g);
  }
  if (values.length == 0) {
    return { default: [NaN], dataMask: [0] };
  }
  return { default: [%s], dataMask: [1] };
}

%s`, bands, mosaicking(agg), name, spec.ScaleFactor, aggregateExpression(agg), medianHelper(agg))
	}

	return fmt.Sprintf(`//VERSION=3
function setup() {
  return {
    input: [%s],
    output: [
      { id: "default", bands: 1, sampleType: "FLOAT32" },
      { id: "dataMask", bands: 1 }
    ],
    mosaicking: "%s"
  };
}

function indexValue(sample) {
%s  return %s;
}

function evaluatePixel(samples) {
  let values = [];
  for (let sample of samples) {
    if (sample.dataMask == 0) continue;
    if (!(%s)) continue;
    values.push(indexValue(sample));
  }
  if (values.length == 0) {
    return { default: [NaN], dataMask: [0] };
  }
  return { default: [%s], dataMask: [1] };
}

%s`, bands, mosaicking(agg), bandAssignments(spec), indexExpression(idx),
		maskExpression(s), aggregateExpression(agg), medianHelper(agg))
}

// mosaicking always requests per-orbit samples so evaluatePixel sees the
// whole stack; mostRecent then reduces to the first valid sample, which is
// the newest in ORBIT order.
func mosaicking(agg Aggregation) string {
	return "ORBIT"
}

func aggregateExpression(agg Aggregation) string {
	switch agg {
	case AggregationMean:
		return "values.reduce((a, b) => a + b, 0) / values.length"
	case AggregationMedian:
		return "median(values)"
	default:
		return "values[0]"
	}
}

func medianHelper(agg Aggregation) string {
	if agg != AggregationMedian {
		return ""
	}
	return `function median(values) {
  values.sort((a, b) => a - b);
  let mid = Math.floor(values.length / 2);
  if (values.length % 2 == 1) {
    return values[mid];
  }
  return (values[mid - 1] + values[mid]) / 2;
}`
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return strings.Join(quoted, ", ")
}
