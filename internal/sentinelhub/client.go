package sentinelhub

import (
	"errors"
	"time"

	"github.com/agriscope/agriscope/internal/aoi"
	"github.com/agriscope/agriscope/internal/index"
	"github.com/agriscope/agriscope/internal/properties"
	"github.com/agriscope/agriscope/internal/sensor"
)

var (
	ErrNoImages      = errors.New("no images found")
	ErrComputeBudget = errors.New("remote computation exceeded its size or time budget")
)

// Aggregation selects how multiple scenes inside a time range collapse into
// one raster.
type Aggregation string

const (
	AggregationMostRecent Aggregation = "mostRecent"
	AggregationMean       Aggregation = "mean"
	AggregationMedian     Aggregation = "median"
)

// Client talks to the processing service. All raster math happens remotely;
// the client only assembles requests and parses scalar or byte results.
type Client struct {
	conn    *Connection
	baseURL string
}

func NewClient(conn *Connection) *Client {
	return &Client{conn: conn, baseURL: properties.SentinelHubBaseURL()}
}

// NewClientWithBaseURL is used by tests to point the client at a fake
// service.
func NewClientWithBaseURL(conn *Connection, baseURL string) *Client {
	return &Client{conn: conn, baseURL: baseURL}
}

// Connected reports whether an access token has been obtained.
func (c *Client) Connected() bool {
	return c.conn.Connected()
}

// ImageDescriptor is one catalog entry. Immutable once fetched.
type ImageDescriptor struct {
	Sensor     sensor.Sensor
	Collection string
	ID         string
	Date       time.Time
	CloudCover float64
}

// IndexResult is an opaque handle to a derived raster held by the remote
// service: the fully-specified request that produces it. It is scoped to
// exactly one AOI and one sensor, and is only materialized locally on
// explicit export.
type IndexResult struct {
	Sensor sensor.Sensor
	// Collection pins the reduction to one of the sensor's collections,
	// for results tied to a specific scene. Empty means every collection
	// the sensor spans.
	Collection  string
	Index       index.Index
	AOI         aoi.AreaOfInterest
	Start       time.Time
	End         time.Time
	Aggregation Aggregation
	Scale       int
	MaxCloud    float64
}

// collections resolves the collection set a reduction must query.
func (r IndexResult) collections() []string {
	if r.Collection != "" {
		return []string{r.Collection}
	}
	return r.Sensor.Spec().Collections
}
