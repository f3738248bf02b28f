package sentinelhub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/agriscope/agriscope/internal/aoi"
	"github.com/agriscope/agriscope/internal/sensor"
)

const defaultCatalogLimit = 100

// CatalogQuery filters the scene catalog for one sensor over one AOI.
type CatalogQuery struct {
	Sensor   sensor.Sensor
	AOI      aoi.AreaOfInterest
	Start    time.Time
	End      time.Time
	MaxCloud float64 // percent, 100 disables the filter
	Limit    int
}

type catalogResponse struct {
	Features []struct {
		ID         string                 `json:"id"`
		Properties map[string]interface{} `json:"properties"`
	} `json:"features"`
}

// Catalog lists available scenes, newest first. Sensors backed by more than
// one collection (Landsat pairs) are merged. An empty result is returned as
// an empty slice, not an error; callers decide whether that is fatal.
func (c *Client) Catalog(ctx context.Context, q CatalogQuery) ([]ImageDescriptor, error) {
	if err := c.conn.Ensure(ctx); err != nil {
		return nil, err
	}
	if q.AOI.IsZero() {
		return nil, aoi.ErrInvalidGeometry
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultCatalogLimit
	}

	spec := q.Sensor.Spec()
	var descriptors []ImageDescriptor
	for _, collection := range spec.Collections {
		partial, err := c.searchCollection(ctx, q, collection, spec, limit)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, partial...)
	}

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Date.After(descriptors[j].Date)
	})
	if len(descriptors) > limit {
		descriptors = descriptors[:limit]
	}
	return descriptors, nil
}

func (c *Client) searchCollection(ctx context.Context, q CatalogQuery, collection string, spec sensor.Spec, limit int) ([]ImageDescriptor, error) {
	geometry, err := q.AOI.GeoJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to export AOI geometry: %w", err)
	}

	payload := map[string]interface{}{
		"collections": []string{collection},
		"datetime":    fmt.Sprintf("%s/%s", q.Start.Format(time.RFC3339), q.End.Format(time.RFC3339)),
		"intersects":  json.RawMessage(geometry),
		"limit":       limit,
	}
	if spec.CloudProperty != "" && q.MaxCloud < 100 {
		payload["filter"] = map[string]interface{}{
			"op": "<",
			"args": []interface{}{
				map[string]string{"property": spec.CloudProperty},
				q.MaxCloud,
			},
		}
		payload["filter-lang"] = "cql2-json"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog request: %w", err)
	}

	url := c.baseURL + "/api/v1/catalog/1.0.0/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.conn.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("catalog request returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed catalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	descriptors := make([]ImageDescriptor, 0, len(parsed.Features))
	for _, feature := range parsed.Features {
		date, err := parseSceneDate(feature.Properties)
		if err != nil {
			continue
		}
		cloud := 0.0
		if spec.CloudProperty != "" {
			if v, ok := feature.Properties[spec.CloudProperty].(float64); ok {
				cloud = v
			}
		}
		descriptors = append(descriptors, ImageDescriptor{
			Sensor:     q.Sensor,
			Collection: collection,
			ID:         feature.ID,
			Date:       date,
			CloudCover: cloud,
		})
	}
	return descriptors, nil
}

func parseSceneDate(properties map[string]interface{}) (time.Time, error) {
	raw, ok := properties["datetime"].(string)
	if !ok {
		return time.Time{}, fmt.Errorf("scene has no datetime property")
	}
	return time.Parse(time.RFC3339, raw)
}
