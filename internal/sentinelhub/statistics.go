package sentinelhub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// degreesPerMeter converts a sampling resolution in meters to CRS84 degrees
// for the statistics endpoint.
const degreesPerMeter = 1.0 / 111_000.0

// Stats is the spatial reduction of an IndexResult over its AOI.
type Stats struct {
	Mean        float64
	Min         float64
	Max         float64
	StDev       float64
	P5          float64
	P95         float64
	SampleCount int64
	NoDataCount int64
}

type statisticsResponse struct {
	Data []struct {
		Outputs map[string]struct {
			Bands map[string]struct {
				Stats struct {
					Mean        float64            `json:"mean"`
					Min         float64            `json:"min"`
					Max         float64            `json:"max"`
					StDev       float64            `json:"stDev"`
					SampleCount int64              `json:"sampleCount"`
					NoDataCount int64              `json:"noDataCount"`
					Percentiles map[string]float64 `json:"percentiles"`
				} `json:"stats"`
			} `json:"bands"`
		} `json:"outputs"`
	} `json:"data"`
	Status string `json:"status"`
}

// Statistics reduces the index raster over the AOI at the result's scale.
// A sensor spanning several collections gets one reduction per collection,
// merged the same way the catalog merges searches; pinning res.Collection
// narrows the fan-out to a single request. Reductions are best-effort: the
// service may subsample very large areas rather than fail, which is why
// scale selection is adaptive in the first place.
func (c *Client) Statistics(ctx context.Context, res IndexResult) (Stats, error) {
	if err := c.conn.Ensure(ctx); err != nil {
		return Stats{}, err
	}

	geometry, err := res.AOI.GeoJSON()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to export AOI geometry: %w", err)
	}

	var merged statisticsResponse
	for _, collection := range res.collections() {
		parsed, err := c.collectionStatistics(ctx, res, geometry, collection)
		if err != nil {
			return Stats{}, err
		}
		merged.Data = append(merged.Data, parsed.Data...)
	}

	return collapseStatistics(merged)
}

func (c *Client) collectionStatistics(ctx context.Context, res IndexResult, geometry []byte, collection string) (statisticsResponse, error) {
	spec := res.Sensor.Spec()
	resolution := float64(res.Scale) * degreesPerMeter

	dataFilter := map[string]interface{}{}
	if spec.CloudProperty != "" && res.MaxCloud < 100 {
		dataFilter["maxCloudCoverage"] = res.MaxCloud
	}

	payload := map[string]interface{}{
		"input": map[string]interface{}{
			"bounds": map[string]interface{}{
				"geometry": json.RawMessage(geometry),
			},
			"data": []map[string]interface{}{
				{
					"type":       collection,
					"dataFilter": dataFilter,
				},
			},
		},
		"aggregation": map[string]interface{}{
			"timeRange": map[string]string{
				"from": res.Start.Format(time.RFC3339),
				"to":   res.End.Format(time.RFC3339),
			},
			"aggregationInterval": map[string]string{
				"of": "P1D",
			},
			"evalscript": Evalscript(res.Sensor, res.Index, res.Aggregation),
			"resx":       resolution,
			"resy":       resolution,
		},
		"calculations": map[string]interface{}{
			"default": map[string]interface{}{
				"statistics": map[string]interface{}{
					"default": map[string]interface{}{
						"percentiles": map[string]interface{}{
							"k": []float64{5, 95},
						},
					},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return statisticsResponse{}, fmt.Errorf("failed to marshal statistics request: %w", err)
	}

	url := c.baseURL + "/api/v1/statistics"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return statisticsResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.conn.client().Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return statisticsResponse{}, fmt.Errorf("%w: %v", ErrComputeBudget, err)
		}
		return statisticsResponse{}, fmt.Errorf("statistics request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		bodyStr := string(raw)
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(bodyStr), "timeout") {
			return statisticsResponse{}, fmt.Errorf("%w: %s", ErrComputeBudget, bodyStr)
		}
		if resp.StatusCode == http.StatusRequestEntityTooLarge {
			return statisticsResponse{}, fmt.Errorf("%w: %s", ErrComputeBudget, bodyStr)
		}
		return statisticsResponse{}, fmt.Errorf("statistics request returned %d: %s", resp.StatusCode, bodyStr)
	}

	var parsed statisticsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return statisticsResponse{}, fmt.Errorf("failed to decode statistics response: %w", err)
	}

	return parsed, nil
}

// collapseStatistics folds the per-interval, per-collection entries into
// one Stats. Most requests cover a single day on one collection so there is
// exactly one entry; wider windows and multi-collection sensors average the
// entry means.
func collapseStatistics(parsed statisticsResponse) (Stats, error) {
	var (
		merged Stats
		count  int
	)

	for _, entry := range parsed.Data {
		output, ok := entry.Outputs["default"]
		if !ok {
			continue
		}
		band, ok := output.Bands["B0"]
		if !ok {
			continue
		}
		s := band.Stats
		if s.SampleCount == 0 || s.SampleCount == s.NoDataCount {
			continue
		}

		if count == 0 {
			merged.Min = s.Min
			merged.Max = s.Max
		} else {
			merged.Min = min(merged.Min, s.Min)
			merged.Max = max(merged.Max, s.Max)
		}
		merged.Mean += s.Mean
		merged.StDev += s.StDev
		merged.P5 += s.Percentiles["5.0"]
		merged.P95 += s.Percentiles["95.0"]
		merged.SampleCount += s.SampleCount
		merged.NoDataCount += s.NoDataCount
		count++
	}

	if count == 0 {
		return Stats{}, fmt.Errorf("%w: reduction produced no valid pixels", ErrNoImages)
	}

	merged.Mean /= float64(count)
	merged.StDev /= float64(count)
	merged.P5 /= float64(count)
	merged.P95 /= float64(count)
	return merged, nil
}

// MeanOverAOI is the spatial mean reduction used by the time-series loop.
func (c *Client) MeanOverAOI(ctx context.Context, res IndexResult) (float64, error) {
	stats, err := c.Statistics(ctx, res)
	if err != nil {
		return 0, err
	}
	return stats.Mean, nil
}
