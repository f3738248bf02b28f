package sentinelhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agriscope/agriscope/internal/aoi"
	"github.com/agriscope/agriscope/internal/index"
	"github.com/agriscope/agriscope/internal/sensor"
	"github.com/stretchr/testify/assert"
)

func testAOI(t *testing.T) aoi.AreaOfInterest {
	t.Helper()
	a, err := aoi.FromBoundingBox(-54.5, -20.5, -54.0, -20.0)
	assert.Nil(t, err)
	return a
}

func testConnection(tokenURL string) *Connection {
	return &Connection{
		creds:    []Credentials{{ClientID: "id", ClientSecret: "secret"}},
		tokenURL: tokenURL,
	}
}

func fakeService(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/", handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	conn := testConnection(server.URL + "/token")
	return server, NewClientWithBaseURL(conn, server.URL)
}

func TestConnectionEnsure_Idempotent(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"t","token_type":"bearer","expires_in":3600}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	conn := testConnection(server.URL + "/token")
	assert.False(t, conn.Connected())
	assert.Nil(t, conn.Ensure(context.Background()))
	assert.True(t, conn.Connected())
	assert.Nil(t, conn.Ensure(context.Background()))
	assert.Equal(t, 1, tokenCalls)
}

func TestConnectionEnsure_NoCredentials(t *testing.T) {
	conn := &Connection{tokenURL: "http://localhost/token"}
	err := conn.Ensure(context.Background())
	assert.ErrorIs(t, err, ErrAuth)
}

func TestNewConnectionFromJSON(t *testing.T) {
	conn, err := NewConnectionFromJSON([]byte(`{"client_id":"a","client_secret":"b","token_url":"http://x/token"}`))
	assert.Nil(t, err)
	assert.Equal(t, "http://x/token", conn.tokenURL)

	_, err = NewConnectionFromJSON([]byte(`{"client_id":"a"}`))
	assert.ErrorIs(t, err, ErrAuth)

	_, err = NewConnectionFromJSON([]byte(`garbage`))
	assert.ErrorIs(t, err, ErrAuth)
}

func catalogFeature(id, datetime string, cloud float64) string {
	return fmt.Sprintf(`{"id":%q,"properties":{"datetime":%q,"eo:cloud_cover":%f}}`, id, datetime, cloud)
}

func TestCatalog_SortedNewestFirst(t *testing.T) {
	_, client := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/catalog/1.0.0/search", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"features":[%s,%s,%s]}`,
			catalogFeature("a", "2024-03-01T10:00:00Z", 12),
			catalogFeature("b", "2024-05-01T10:00:00Z", 3),
			catalogFeature("c", "2024-04-01T10:00:00Z", 44),
		)
	})

	images, err := client.Catalog(context.Background(), CatalogQuery{
		Sensor:   sensor.Sentinel2,
		AOI:      testAOI(t),
		Start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		MaxCloud: 100,
	})
	assert.Nil(t, err)
	assert.Len(t, images, 3)
	assert.Equal(t, "b", images[0].ID)
	assert.Equal(t, "c", images[1].ID)
	assert.Equal(t, "a", images[2].ID)
	assert.Equal(t, 3.0, images[0].CloudCover)
}

func TestCatalog_MergesLandsatCollections(t *testing.T) {
	var collections []string
	_, client := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Collections []string `json:"collections"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		collections = append(collections, body.Collections...)
		w.Header().Set("Content-Type", "application/json")
		if body.Collections[0] == "landsat-etm-l2" {
			fmt.Fprintf(w, `{"features":[%s]}`, catalogFeature("etm-1", "2005-06-01T10:00:00Z", 4))
			return
		}
		fmt.Fprint(w, `{"features":[]}`)
	})

	images, err := client.Catalog(context.Background(), CatalogQuery{
		Sensor:   sensor.Landsat57,
		AOI:      testAOI(t),
		Start:    time.Now().AddDate(0, -1, 0),
		End:      time.Now(),
		MaxCloud: 100,
	})
	assert.Nil(t, err)
	assert.Equal(t, []string{"landsat-tm-l2", "landsat-etm-l2"}, collections)
	assert.Len(t, images, 1)
	assert.Equal(t, "landsat-etm-l2", images[0].Collection)
}

func TestCatalog_CloudFilterOnlyWhenBounded(t *testing.T) {
	var sawFilter bool
	_, client := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		_, sawFilter = body["filter"]
		fmt.Fprint(w, `{"features":[]}`)
	})

	q := CatalogQuery{
		Sensor:   sensor.Sentinel2,
		AOI:      testAOI(t),
		Start:    time.Now().AddDate(0, -1, 0),
		End:      time.Now(),
		MaxCloud: 30,
	}
	_, err := client.Catalog(context.Background(), q)
	assert.Nil(t, err)
	assert.True(t, sawFilter)

	q.MaxCloud = 100
	_, err = client.Catalog(context.Background(), q)
	assert.Nil(t, err)
	assert.False(t, sawFilter)
}

func TestCatalog_EmptyAOI(t *testing.T) {
	_, client := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[]}`)
	})
	_, err := client.Catalog(context.Background(), CatalogQuery{Sensor: sensor.Sentinel2})
	assert.ErrorIs(t, err, aoi.ErrInvalidGeometry)
}

func statsBody(mean, stDev float64, samples, nodata int64) string {
	return fmt.Sprintf(`{"status":"OK","data":[{"interval":{"from":"2024-05-01T00:00:00Z","to":"2024-05-02T00:00:00Z"},
	  "outputs":{"default":{"bands":{"B0":{"stats":{"mean":%f,"min":-0.1,"max":0.9,"stDev":%f,
	  "sampleCount":%d,"noDataCount":%d,"percentiles":{"5.0":0.1,"95.0":0.8}}}}}}}]}`,
		mean, stDev, samples, nodata)
}

func testResult(t *testing.T) IndexResult {
	return IndexResult{
		Sensor:      sensor.Sentinel2,
		Index:       index.NDVI,
		AOI:         testAOI(t),
		Start:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Aggregation: AggregationMostRecent,
		Scale:       10,
		MaxCloud:    100,
	}
}

func TestStatistics_ParsesStats(t *testing.T) {
	_, client := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/statistics", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, statsBody(0.42, 0.07, 1000, 10))
	})

	stats, err := client.Statistics(context.Background(), testResult(t))
	assert.Nil(t, err)
	assert.InDelta(t, 0.42, stats.Mean, 1e-9)
	assert.InDelta(t, 0.07, stats.StDev, 1e-9)
	assert.InDelta(t, 0.1, stats.P5, 1e-9)
	assert.Equal(t, int64(1000), stats.SampleCount)

	mean, err := client.MeanOverAOI(context.Background(), testResult(t))
	assert.Nil(t, err)
	assert.InDelta(t, 0.42, mean, 1e-9)
}

func TestStatistics_AllNoData(t *testing.T) {
	_, client := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, statsBody(0, 0, 500, 500))
	})

	_, err := client.Statistics(context.Background(), testResult(t))
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestStatistics_OversizeRequest(t *testing.T) {
	_, client := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		fmt.Fprint(w, `{"error":"request too large"}`)
	})

	_, err := client.Statistics(context.Background(), testResult(t))
	assert.ErrorIs(t, err, ErrComputeBudget)
}

func requestedCollection(t *testing.T, r *http.Request) string {
	t.Helper()
	body, _ := io.ReadAll(r.Body)
	var payload struct {
		Input struct {
			Data []struct {
				Type string `json:"type"`
			} `json:"data"`
		} `json:"input"`
	}
	assert.NoError(t, json.Unmarshal(body, &payload))
	if len(payload.Input.Data) == 0 {
		return ""
	}
	return payload.Input.Data[0].Type
}

func TestStatistics_QueriesEveryLandsatCollection(t *testing.T) {
	var requested []string
	_, client := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		collection := requestedCollection(t, r)
		requested = append(requested, collection)
		// An ETM-era day: TM has no usable pixels, ETM does.
		if collection == "landsat-etm-l2" {
			fmt.Fprint(w, statsBody(0.5, 0.05, 800, 10))
			return
		}
		fmt.Fprint(w, statsBody(0, 0, 500, 500))
	})

	res := testResult(t)
	res.Sensor = sensor.Landsat57
	res.Scale = 30

	stats, err := client.Statistics(context.Background(), res)
	assert.Nil(t, err)
	assert.Equal(t, []string{"landsat-tm-l2", "landsat-etm-l2"}, requested)
	assert.InDelta(t, 0.5, stats.Mean, 1e-9)
}

func TestStatistics_PinnedCollection(t *testing.T) {
	var requested []string
	_, client := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, requestedCollection(t, r))
		fmt.Fprint(w, statsBody(0.3, 0.02, 600, 5))
	})

	res := testResult(t)
	res.Sensor = sensor.Landsat57
	res.Collection = "landsat-etm-l2"
	res.Scale = 30

	_, err := client.Statistics(context.Background(), res)
	assert.Nil(t, err)
	assert.Equal(t, []string{"landsat-etm-l2"}, requested)
}

func TestProcess_UsesPinnedCollection(t *testing.T) {
	var requested string
	_, client := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		requested = requestedCollection(t, r)
		w.Header().Set("Content-Type", "image/tiff")
		w.Write([]byte("tiff-bytes"))
	})

	res := testResult(t)
	res.Sensor = sensor.Landsat57
	res.Collection = "landsat-etm-l2"
	res.Scale = 30

	data, err := client.Process(context.Background(), res, "image/tiff")
	assert.Nil(t, err)
	assert.Equal(t, []byte("tiff-bytes"), data)
	assert.Equal(t, "landsat-etm-l2", requested)
}

func TestProcess_ReturnsBytesAndRespectsAuthFailure(t *testing.T) {
	_, client := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/process", r.URL.Path)
		w.Write([]byte("tiff-bytes"))
	})

	data, err := client.DownloadGeoTIFF(context.Background(), testResult(t))
	assert.Nil(t, err)
	assert.Equal(t, []byte("tiff-bytes"), data)

	_, denied := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err = denied.Thumbnail(context.Background(), testResult(t))
	assert.ErrorIs(t, err, ErrAuth)
}

func TestCalculatePixels_Clamp(t *testing.T) {
	assert.Equal(t, 1, calculatePixels(0.00001, 10))
	assert.Equal(t, maxProcessPixels, calculatePixels(10, 10))
	assert.Equal(t, 555, calculatePixels(0.05, 10))
}

func TestEvalscript_ContainsSensorBandsAndMask(t *testing.T) {
	script := Evalscript(sensor.Sentinel2, index.NDVI, AggregationMostRecent)
	assert.Contains(t, script, `"B08"`)
	assert.Contains(t, script, "sample.SCL != 3")
	assert.Contains(t, script, "(nir - red) / (nir + red)")

	script = Evalscript(sensor.Landsat89, index.NBR, AggregationMedian)
	assert.Contains(t, script, `"BQA"`)
	assert.Contains(t, script, "function median")

	script = Evalscript(sensor.MODIS, index.EVI, AggregationMean)
	assert.Contains(t, script, `"EVI"`)
	assert.False(t, strings.Contains(script, "swir1"))
}
