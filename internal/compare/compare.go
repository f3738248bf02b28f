package compare

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agriscope/agriscope/internal/aoi"
	"github.com/agriscope/agriscope/internal/composite"
	"github.com/agriscope/agriscope/internal/index"
	"github.com/agriscope/agriscope/internal/sensor"
	"github.com/agriscope/agriscope/internal/sentinelhub"
)

// Period is one side of a comparison.
type Period struct {
	Start time.Time
	End   time.Time
}

// Request compares the same AOI, sensor and index over two date ranges.
type Request struct {
	AOI      aoi.AreaOfInterest
	Sensor   sensor.Sensor
	Index    index.Index
	Method   composite.Method
	Before   Period
	After    Period
	MaxCloud float64
	Scale    int
}

// Side is the resolved composite plus its spatial statistics for one period.
type Side struct {
	Result     sentinelhub.IndexResult
	ImageCount int
	Stats      sentinelhub.Stats
	TileURL    string
}

// Result pairs the two sides with the mean change between them.
type Result struct {
	Before    Side
	After     Side
	MeanDelta float64
}

// Run builds and measures both sides concurrently. Either side failing
// fails the comparison; a half-comparison is not useful.
func Run(ctx context.Context, client *sentinelhub.Client, req Request) (Result, error) {
	if req.Before.Start.After(req.After.Start) {
		return Result{}, fmt.Errorf("before period must start earlier than after period")
	}

	var result Result
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		side, err := buildSide(ctx, client, req, req.Before)
		if err != nil {
			return fmt.Errorf("before period: %w", err)
		}
		result.Before = side
		return nil
	})
	g.Go(func() error {
		side, err := buildSide(ctx, client, req, req.After)
		if err != nil {
			return fmt.Errorf("after period: %w", err)
		}
		result.After = side
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	result.MeanDelta = result.After.Stats.Mean - result.Before.Stats.Mean
	return result, nil
}

func buildSide(ctx context.Context, client *sentinelhub.Client, req Request, period Period) (Side, error) {
	res, count, err := composite.Build(ctx, client, composite.Request{
		AOI:      req.AOI,
		Sensor:   req.Sensor,
		Index:    req.Index,
		Method:   req.Method,
		Start:    period.Start,
		End:      period.End,
		MaxCloud: req.MaxCloud,
		Scale:    req.Scale,
	})
	if err != nil {
		return Side{}, err
	}

	stats, err := client.Statistics(ctx, res)
	if err != nil {
		return Side{}, err
	}

	return Side{
		Result:     res,
		ImageCount: count,
		Stats:      stats,
		TileURL:    client.TileURL(res),
	}, nil
}
