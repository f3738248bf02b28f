package sentinelhub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/agriscope/agriscope/internal/properties"
)

const (
	maxProcessPixels  = 2500
	processRetries    = 3
	processRetryDelay = 5 * time.Second
)

func calculatePixels(distanceDeg float64, resolution int) int {
	pixels := distanceDeg * (111_000.0 / float64(resolution))
	if pixels < 1 {
		return 1
	}
	if pixels > maxProcessPixels {
		return maxProcessPixels
	}
	return int(pixels)
}

// Process renders the IndexResult through the process endpoint and returns
// the raw bytes. Format is a MIME type, image/tiff for GeoTIFF export or
// image/png for thumbnails.
func (c *Client) Process(ctx context.Context, res IndexResult, format string) ([]byte, error) {
	if err := c.conn.Ensure(ctx); err != nil {
		return nil, err
	}

	geometry, err := res.AOI.GeoJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to export AOI geometry: %w", err)
	}

	bound := res.AOI.Bound()
	width := calculatePixels(bound.Max.Lon()-bound.Min.Lon(), res.Scale)
	height := calculatePixels(bound.Max.Lat()-bound.Min.Lat(), res.Scale)

	spec := res.Sensor.Spec()
	// One process request renders one collection; a pinned Collection
	// wins, otherwise the sensor's primary collection is used.
	collection := res.collections()[0]
	dataFilter := map[string]interface{}{
		"timeRange": map[string]string{
			"from": res.Start.Format(time.RFC3339),
			"to":   res.End.Format(time.RFC3339),
		},
	}
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
		"output": map[string]interface{}{
			"width":  width,
			"height": height,
			"responses": []map[string]interface{}{
				{
					"identifier": "default",
					"format":     map[string]string{"type": format},
				},
			},
		},
		"evalscript": Evalscript(res.Sensor, res.Index, res.Aggregation),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal process request: %w", err)
	}

	endpoint := c.baseURL + "/api/v1/process"

	var lastErr error
	for attempt := 1; attempt <= processRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.conn.client().Do(req)
		if err != nil {
			lastErr = err
		} else {
			content, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = readErr
			case resp.StatusCode == http.StatusOK:
				return content, nil
			case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
				return nil, fmt.Errorf("%w: process request returned %d", ErrAuth, resp.StatusCode)
			case resp.StatusCode == http.StatusRequestEntityTooLarge:
				return nil, fmt.Errorf("%w: %s", ErrComputeBudget, string(content))
			default:
				lastErr = fmt.Errorf("process request returned %d: %s", resp.StatusCode, string(content))
			}
		}

		if attempt < processRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(processRetryDelay):
			}
		}
	}

	return nil, fmt.Errorf("process request failed after %d attempts: %w", processRetries, lastErr)
}

// DownloadGeoTIFF materializes the raster locally. The only place where an
// IndexResult leaves the remote service as pixels.
func (c *Client) DownloadGeoTIFF(ctx context.Context, res IndexResult) ([]byte, error) {
	return c.Process(ctx, res, "image/tiff")
}

// Thumbnail renders a small PNG preview.
func (c *Client) Thumbnail(ctx context.Context, res IndexResult) ([]byte, error) {
	return c.Process(ctx, res, "image/png")
}

// TileURL returns the OGC WMS layer URL that map widgets consume. The
// instance must be configured on the service side with a layer per index.
func (c *Client) TileURL(res IndexResult) string {
	instance := properties.SentinelHubInstanceID()
	if instance == "" {
		return ""
	}
	params := url.Values{}
	params.Set("REQUEST", "GetMap")
	params.Set("LAYERS", res.Index.String())
	params.Set("TIME", fmt.Sprintf("%s/%s", res.Start.Format("2006-01-02"), res.End.Format("2006-01-02")))
	params.Set("MAXCC", fmt.Sprintf("%.0f", res.MaxCloud))
	return fmt.Sprintf("%s/ogc/wms/%s?%s", c.baseURL, instance, params.Encode())
}
