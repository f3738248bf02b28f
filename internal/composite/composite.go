package composite

import (
	"context"
	"fmt"
	"time"

	"github.com/agriscope/agriscope/internal/aoi"
	"github.com/agriscope/agriscope/internal/index"
	"github.com/agriscope/agriscope/internal/sensor"
	"github.com/agriscope/agriscope/internal/sentinelhub"
)

// Method selects how the images in a date range collapse into one raster.
type Method int

const (
	MostRecent Method = iota
	Mean
	Median
)

var methodNames = map[Method]string{
	MostRecent: "Single Date",
	Mean:       "Mean Composite",
	Median:     "Median Composite",
}

func AllMethods() []Method {
	return []Method{Median, Mean, MostRecent}
}

// ParseMethod resolves a composite display name, defaulting to Median.
func ParseMethod(name string) Method {
	for m, n := range methodNames {
		if n == name {
			return m
		}
	}
	return Median
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return "Median Composite"
}

func (m Method) aggregation() sentinelhub.Aggregation {
	switch m {
	case Mean:
		return sentinelhub.AggregationMean
	case Median:
		return sentinelhub.AggregationMedian
	default:
		return sentinelhub.AggregationMostRecent
	}
}

// Request describes one composite build.
type Request struct {
	AOI      aoi.AreaOfInterest
	Sensor   sensor.Sensor
	Index    index.Index
	Method   Method
	Start    time.Time
	End      time.Time
	MaxCloud float64
	Scale    int // zero picks the adaptive scale for the AOI
}

// Build checks the catalog and assembles the composite's IndexResult. The
// empty-collection guard runs before any reduction is attempted: reducing an
// empty collection would burn a remote round trip just to fail.
func Build(ctx context.Context, client *sentinelhub.Client, req Request) (sentinelhub.IndexResult, int, error) {
	images, err := client.Catalog(ctx, sentinelhub.CatalogQuery{
		Sensor:   req.Sensor,
		AOI:      req.AOI,
		Start:    req.Start,
		End:      req.End,
		MaxCloud: req.MaxCloud,
	})
	if err != nil {
		return sentinelhub.IndexResult{}, 0, err
	}
	if len(images) == 0 {
		return sentinelhub.IndexResult{}, 0, fmt.Errorf("%w: try a different date range or cloud threshold", sentinelhub.ErrNoImages)
	}

	scale := req.Scale
	if scale <= 0 {
		scale = sensor.AdaptiveScale(req.AOI.AreaKm2(), req.Sensor)
	}

	start, end := req.Start, req.End
	var collection string
	if req.Method == MostRecent {
		// Narrow the window to the newest scene's day and pin its
		// collection so the reduction queries the scene that was found.
		day := images[0].Date.Truncate(24 * time.Hour)
		start, end = day, day.Add(24*time.Hour-time.Second)
		collection = images[0].Collection
	}

	result := sentinelhub.IndexResult{
		Sensor:      req.Sensor,
		Collection:  collection,
		Index:       req.Index,
		AOI:         req.AOI,
		Start:       start,
		End:         end,
		Aggregation: req.Method.aggregation(),
		Scale:       scale,
		MaxCloud:    req.MaxCloud,
	}
	return result, len(images), nil
}
