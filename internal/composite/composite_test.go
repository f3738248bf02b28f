package composite

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agriscope/agriscope/internal/aoi"
	"github.com/agriscope/agriscope/internal/index"
	"github.com/agriscope/agriscope/internal/sensor"
	"github.com/agriscope/agriscope/internal/sentinelhub"
	"github.com/stretchr/testify/assert"
)

func fakeCatalog(t *testing.T, features string) *sentinelhub.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"t","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/api/v1/catalog/1.0.0/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"features":[%s]}`, features)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	conn, err := sentinelhub.NewConnectionFromJSON([]byte(fmt.Sprintf(
		`{"client_id":"a","client_secret":"b","token_url":"%s/token"}`, server.URL)))
	assert.Nil(t, err)
	return sentinelhub.NewClientWithBaseURL(conn, server.URL)
}

func testRequest(t *testing.T, method Method) Request {
	t.Helper()
	area, err := aoi.FromBoundingBox(-54.5, -20.5, -54.0, -20.0)
	assert.Nil(t, err)
	return Request{
		AOI:      area,
		Sensor:   sensor.Sentinel2,
		Index:    index.NDVI,
		Method:   method,
		Start:    time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		MaxCloud: 30,
	}
}

func TestBuild_EmptyCollectionGuard(t *testing.T) {
	client := fakeCatalog(t, "")

	for _, method := range AllMethods() {
		_, _, err := Build(context.Background(), client, testRequest(t, method))
		assert.ErrorIs(t, err, sentinelhub.ErrNoImages, "method %s", method)
	}
}

func TestBuild_MedianCompositeSpansRange(t *testing.T) {
	client := fakeCatalog(t,
		`{"id":"s1","properties":{"datetime":"2024-05-10T10:00:00Z","eo:cloud_cover":5}},
		 {"id":"s2","properties":{"datetime":"2024-04-12T10:00:00Z","eo:cloud_cover":8}}`)

	req := testRequest(t, Median)
	result, count, err := Build(context.Background(), client, req)
	assert.Nil(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, sentinelhub.AggregationMedian, result.Aggregation)
	assert.Equal(t, req.Start, result.Start)
	assert.Equal(t, req.End, result.End)
	assert.Empty(t, result.Collection)
	// 55x55 km AOI, ~3000 km2: adaptive scale stays above native.
	assert.Equal(t, 500, result.Scale)
}

func TestBuild_MostRecentNarrowsToNewestScene(t *testing.T) {
	client := fakeCatalog(t,
		`{"id":"s1","properties":{"datetime":"2024-05-10T10:00:00Z","eo:cloud_cover":5}},
		 {"id":"s2","properties":{"datetime":"2024-04-12T10:00:00Z","eo:cloud_cover":8}}`)

	result, _, err := Build(context.Background(), client, testRequest(t, MostRecent))
	assert.Nil(t, err)
	assert.Equal(t, sentinelhub.AggregationMostRecent, result.Aggregation)
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), result.Start)
	assert.Equal(t, 10, result.End.Day())
	assert.Equal(t, "sentinel-2-l2a", result.Collection)
}

func TestParseMethod(t *testing.T) {
	assert.Equal(t, Mean, ParseMethod("Mean Composite"))
	assert.Equal(t, MostRecent, ParseMethod("Single Date"))
	assert.Equal(t, Median, ParseMethod("anything else"))
}
