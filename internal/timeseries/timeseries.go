package timeseries

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/agriscope/agriscope/internal/aoi"
	"github.com/agriscope/agriscope/internal/index"
	"github.com/agriscope/agriscope/internal/sensor"
	"github.com/agriscope/agriscope/internal/sentinelhub"
	"github.com/schollz/progressbar/v3"
)

var ErrInsufficientData = errors.New("insufficient data: need at least 2 usable points")

const (
	// DefaultMaxImages bounds one aggregation run for responsiveness.
	DefaultMaxImages = 20
	// HardMaxImages is the absolute cap on sequential remote calls.
	HardMaxImages = 30

	// trendDeadZone is the per-step slope below which the series counts as
	// stable.
	trendDeadZone = 0.01
)

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
	TrendUnknown    Trend = "unknown"
)

// Point is one spatially-reduced observation.
type Point struct {
	Date  time.Time
	Value float64
}

// Fit is the ordinary-least-squares line through the series, with time
// measured as day offsets from the first observation.
type Fit struct {
	SlopePerDay float64
	Intercept   float64
	R2          float64
	HasR2       bool
}

// Summary holds descriptive statistics over the surviving points.
type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Result is the partial-result accumulator of one aggregation run: the
// points that survived, the number of per-image failures that were skipped,
// and the derived statistics.
type Result struct {
	Points   []Point
	Failures int
	Summary  Summary
	Fit      *Fit
	Trend    Trend
}

// Options tunes one aggregation run.
type Options struct {
	// MaxImages caps the number of descriptors processed. Zero means
	// DefaultMaxImages; anything above HardMaxImages is clamped.
	MaxImages int
	// Scale overrides the sampling resolution in meters. Zero means the
	// sensor's native resolution.
	Scale int
	// MaxCloud forwards the catalog cloud threshold to the per-image
	// reduction. Zero means no filtering (100).
	MaxCloud float64
	// ShowProgress renders a terminal progress bar (CLI path only).
	ShowProgress bool
}

// Aggregate walks the descriptor list sequentially, reducing each image to
// its spatial mean over the AOI. Per-image failures are skipped and counted,
// never fatal; only a series with fewer than 2 surviving points is reported
// as insufficient.
func Aggregate(ctx context.Context, client *sentinelhub.Client, area aoi.AreaOfInterest, s sensor.Sensor, idx index.Index, images []sentinelhub.ImageDescriptor, opts Options) (Result, error) {
	limit := opts.MaxImages
	if limit <= 0 {
		limit = DefaultMaxImages
	}
	if limit > HardMaxImages {
		limit = HardMaxImages
	}
	if len(images) > limit {
		images = images[:limit]
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = s.NativeScale()
	}
	maxCloud := opts.MaxCloud
	if maxCloud <= 0 {
		maxCloud = 100
	}

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(len(images)), "Calculating time series")
	}

	var (
		points   []Point
		failures int
	)
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		day := img.Date.Truncate(24 * time.Hour)
		res := sentinelhub.IndexResult{
			Sensor:      s,
			Collection:  img.Collection,
			Index:       idx,
			AOI:         area,
			Start:       day,
			End:         day.Add(24*time.Hour - time.Second),
			Aggregation: sentinelhub.AggregationMostRecent,
			Scale:       scale,
			MaxCloud:    maxCloud,
		}

		value, err := client.MeanOverAOI(ctx, res)
		if err != nil || math.IsNaN(value) {
			failures++
		} else {
			points = append(points, Point{Date: img.Date, Value: value})
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	return Build(points, failures)
}

// Build derives statistics and trend from collected points. Separately
// callable so the post-processing is testable without a remote service.
func Build(points []Point, failures int) (Result, error) {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	result := Result{Points: sorted, Failures: failures, Trend: TrendUnknown}
	if len(sorted) < 2 {
		return result, fmt.Errorf("%w: got %d", ErrInsufficientData, len(sorted))
	}

	result.Summary = summarize(sorted)
	result.Fit = fitLine(sorted)
	result.Trend = classifyTrend(sorted)
	return result, nil
}

func summarize(points []Point) Summary {
	s := Summary{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, p := range points {
		s.Mean += p.Value
		s.Min = math.Min(s.Min, p.Value)
		s.Max = math.Max(s.Max, p.Value)
	}
	s.Mean /= float64(len(points))

	var sum float64
	for _, p := range points {
		d := p.Value - s.Mean
		sum += d * d
	}
	// Sample standard deviation.
	s.StdDev = math.Sqrt(sum / float64(len(points)-1))
	return s
}

func olsSlope(xs, ys []float64) (slope, intercept float64) {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// fitLine regresses value against day offsets from the first observation.
// R2 needs at least 3 points to say anything.
func fitLine(points []Point) *Fit {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	first := points[0].Date
	for i, p := range points {
		xs[i] = p.Date.Sub(first).Hours() / 24
		ys[i] = p.Value
	}

	slope, intercept := olsSlope(xs, ys)
	fit := &Fit{SlopePerDay: slope, Intercept: intercept}

	if len(points) >= 3 {
		var ssRes, ssTot, mean float64
		for _, y := range ys {
			mean += y
		}
		mean /= float64(len(ys))
		for i, y := range ys {
			pred := slope*xs[i] + intercept
			ssRes += (y - pred) * (y - pred)
			ssTot += (y - mean) * (y - mean)
		}
		if ssTot > 0 {
			fit.R2 = 1 - ssRes/ssTot
			fit.HasR2 = true
		}
	}
	return fit
}

// classifyTrend uses the slope per observation step, not per day, so the
// dead zone stays meaningful regardless of how far apart acquisitions are.
func classifyTrend(points []Point) Trend {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(i)
		ys[i] = p.Value
	}
	slope, _ := olsSlope(xs, ys)

	switch {
	case slope > trendDeadZone:
		return TrendIncreasing
	case slope < -trendDeadZone:
		return TrendDecreasing
	default:
		return TrendStable
	}
}
