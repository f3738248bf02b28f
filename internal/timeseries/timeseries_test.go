package timeseries

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestBuild_SortsChronologically(t *testing.T) {
	points := []Point{
		{Date: day(20), Value: 0.5},
		{Date: day(0), Value: 0.1},
		{Date: day(10), Value: 0.3},
	}
	result, err := Build(points, 0)
	assert.Nil(t, err)
	assert.Equal(t, day(0), result.Points[0].Date)
	assert.Equal(t, day(10), result.Points[1].Date)
	assert.Equal(t, day(20), result.Points[2].Date)
}

func TestBuild_InsufficientData(t *testing.T) {
	_, err := Build(nil, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)

	result, err := Build([]Point{{Date: day(0), Value: 0.4}}, 1)
	assert.ErrorIs(t, err, ErrInsufficientData)
	// Raw points are still returned alongside the error.
	assert.Len(t, result.Points, 1)
	assert.Equal(t, 1, result.Failures)
	assert.Nil(t, result.Fit)
	assert.Equal(t, TrendUnknown, result.Trend)
}

func TestBuild_ExactlyTwoPoints(t *testing.T) {
	result, err := Build([]Point{
		{Date: day(0), Value: 0.2},
		{Date: day(10), Value: 0.4},
	}, 0)
	assert.Nil(t, err)
	assert.NotNil(t, result.Fit)
	assert.InDelta(t, 0.02, result.Fit.SlopePerDay, 1e-9)
	assert.InDelta(t, 0.2, result.Fit.Intercept, 1e-9)
	// R2 requires at least 3 points.
	assert.False(t, result.Fit.HasR2)
	// Dead-zone classification still applies: per-step slope is 0.2.
	assert.Equal(t, TrendIncreasing, result.Trend)
}

func TestBuild_StatisticsOverSurvivorsOnly(t *testing.T) {
	// Five descriptors, one failed fetch: four usable points, out of order.
	points := []Point{
		{Date: day(30), Value: 0.8},
		{Date: day(0), Value: 0.2},
		{Date: day(20), Value: 0.6},
		{Date: day(10), Value: 0.4},
	}
	result, err := Build(points, 1)
	assert.Nil(t, err)
	assert.Len(t, result.Points, 4)
	assert.Equal(t, 1, result.Failures)
	assert.InDelta(t, 0.5, result.Summary.Mean, 1e-9)
	assert.InDelta(t, 0.2, result.Summary.Min, 1e-9)
	assert.InDelta(t, 0.8, result.Summary.Max, 1e-9)
	// Sample stddev of {0.2,0.4,0.6,0.8}.
	assert.InDelta(t, 0.2581988897, result.Summary.StdDev, 1e-6)
	assert.Equal(t, TrendIncreasing, result.Trend)
	assert.True(t, result.Fit.HasR2)
	assert.InDelta(t, 1.0, result.Fit.R2, 1e-9)
}

func TestBuild_StableWithinDeadZone(t *testing.T) {
	result, err := Build([]Point{
		{Date: day(0), Value: 0.500},
		{Date: day(10), Value: 0.502},
		{Date: day(20), Value: 0.499},
		{Date: day(30), Value: 0.503},
	}, 0)
	assert.Nil(t, err)
	assert.Equal(t, TrendStable, result.Trend)
}

func TestBuild_Decreasing(t *testing.T) {
	result, err := Build([]Point{
		{Date: day(0), Value: 0.8},
		{Date: day(10), Value: 0.6},
		{Date: day(20), Value: 0.35},
	}, 0)
	assert.Nil(t, err)
	assert.Equal(t, TrendDecreasing, result.Trend)
	assert.Less(t, result.Fit.SlopePerDay, 0.0)
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	points := []Point{
		{Date: day(10), Value: 0.3},
		{Date: day(0), Value: 0.1},
	}
	_, err := Build(points, 0)
	assert.Nil(t, err)
	assert.Equal(t, day(10), points[0].Date)
}

func TestOLSSlope_DegenerateX(t *testing.T) {
	slope, intercept := olsSlope([]float64{2, 2, 2}, []float64{1, 2, 3})
	assert.Equal(t, 0.0, slope)
	assert.InDelta(t, 2.0, intercept, 1e-9)
}

func TestSummarize_NoNaN(t *testing.T) {
	s := summarize([]Point{{Date: day(0), Value: 0.5}, {Date: day(1), Value: 0.5}})
	assert.False(t, math.IsNaN(s.StdDev))
	assert.Equal(t, 0.0, s.StdDev)
}

func TestWriteCSV(t *testing.T) {
	result, err := Build([]Point{
		{Date: day(1), Value: 0.25},
		{Date: day(0), Value: 0.5},
	}, 0)
	assert.Nil(t, err)

	var buf bytes.Buffer
	assert.Nil(t, WriteCSV(&buf, result))
	assert.Equal(t, "date,value\n2024-01-01,0.5\n2024-01-02,0.25\n", buf.String())
}
