package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agriscope/agriscope/internal/aoi"
	"github.com/agriscope/agriscope/internal/compare"
	"github.com/agriscope/agriscope/internal/composite"
	"github.com/agriscope/agriscope/internal/drone"
	"github.com/agriscope/agriscope/internal/index"
	"github.com/agriscope/agriscope/internal/sensor"
	"github.com/agriscope/agriscope/internal/sentinelhub"
	"github.com/agriscope/agriscope/internal/session"
	"github.com/agriscope/agriscope/internal/timeseries"
)

const dateLayout = "2006-01-02"

// respondError maps the domain error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, aoi.ErrInvalidGeometry):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, sentinelhub.ErrNoImages):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, sentinelhub.ErrAuth):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, sentinelhub.ErrComputeBudget):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, timeseries.ErrInsufficientData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) session(c *gin.Context) (*session.Session, bool) {
	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return sess, true
}

func sessionJSON(sess *session.Session) gin.H {
	out := gin.H{
		"session_id": sess.ID,
		"sensor":     sess.Sensor.String(),
		"index":      sess.Index.String(),
		"max_cloud":  sess.MaxCloud,
	}
	if !sess.AOI.IsZero() {
		lat, lon := sess.AOI.Centroid()
		out["aoi"] = gin.H{
			"area_km2":       sess.AOI.AreaKm2(),
			"centroid":       gin.H{"lat": lat, "lon": lon},
			"adaptive_scale": sensor.AdaptiveScale(sess.AOI.AreaKm2(), sess.Sensor),
		}
	}
	return out
}

func (s *Server) handleCreateSession(c *gin.Context) {
	sess := s.registry.Create()
	c.JSON(http.StatusCreated, sessionJSON(sess))
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionJSON(sess))
}

type aoiRequest struct {
	GeoJSON json.RawMessage `json:"geojson"`
	BBox    []float64       `json:"bbox"`
	Point   *struct {
		Lat      float64 `json:"lat"`
		Lon      float64 `json:"lon"`
		BufferKm float64 `json:"buffer_km"`
	} `json:"point"`
}

func (r aoiRequest) resolve() (aoi.AreaOfInterest, error) {
	switch {
	case len(r.GeoJSON) > 0:
		return aoi.FromGeoJSON(r.GeoJSON)
	case len(r.BBox) == 4:
		return aoi.FromBoundingBox(r.BBox[0], r.BBox[1], r.BBox[2], r.BBox[3])
	case r.Point != nil:
		return aoi.FromBufferedPoint(r.Point.Lon, r.Point.Lat, r.Point.BufferKm)
	default:
		return aoi.AreaOfInterest{}, fmt.Errorf("%w: provide geojson, bbox or point", aoi.ErrInvalidGeometry)
	}
}

func (s *Server) handleSetAOI(c *gin.Context) {
	var req aoiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	area, err := req.resolve()
	if err != nil {
		respondError(c, err)
		return
	}

	if err := s.registry.Update(c.Param("id"), func(sess *session.Session) {
		sess.AOI = area
		sess.Images = nil
		sess.Series = nil
	}); err != nil {
		respondError(c, err)
		return
	}

	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionJSON(sess))
}

type settingsRequest struct {
	Sensor   string   `json:"sensor"`
	Index    string   `json:"index"`
	MaxCloud *float64 `json:"max_cloud"`
}

func (s *Server) handleSetSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var parsedSensor sensor.Sensor
	if req.Sensor != "" {
		var err error
		parsedSensor, err = sensor.Parse(req.Sensor)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.MaxCloud != nil && (*req.MaxCloud < 0 || *req.MaxCloud > 100) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_cloud must be between 0 and 100"})
		return
	}

	if err := s.registry.Update(c.Param("id"), func(sess *session.Session) {
		if req.Sensor != "" {
			sess.Sensor = parsedSensor
		}
		if req.Index != "" {
			sess.Index = index.Parse(req.Index)
		}
		if req.MaxCloud != nil {
			sess.MaxCloud = *req.MaxCloud
		}
		sess.Images = nil
		sess.Series = nil
	}); err != nil {
		respondError(c, err)
		return
	}

	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionJSON(sess))
}

func parseWindow(c *gin.Context) (time.Time, time.Time, error) {
	return parseRange(c.Query("start"), c.Query("end"))
}

func (s *Server) handleListImages(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	start, end, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	images, err := s.catalog.Search(c.Request.Context(), s.client, sentinelhub.CatalogQuery{
		Sensor:   sess.Sensor,
		AOI:      sess.AOI,
		Start:    start,
		End:      end,
		MaxCloud: sess.MaxCloud,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	s.registry.Update(sess.ID, func(sess *session.Session) {
		sess.Images = images
	})

	out := make([]gin.H, 0, len(images))
	for _, img := range images {
		out = append(out, gin.H{
			"id":          img.ID,
			"date":        img.Date.Format(dateLayout),
			"cloud_cover": img.CloudCover,
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(images), "images": out})
}

type mapRequest struct {
	Method string `json:"method"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Scale  int    `json:"scale"`
}

func (s *Server) handleBuildMap(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req mapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	start, end, err := parseRange(req.Start, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, count, err := composite.Build(c.Request.Context(), s.client, composite.Request{
		AOI:      sess.AOI,
		Sensor:   sess.Sensor,
		Index:    sess.Index,
		Method:   composite.ParseMethod(req.Method),
		Start:    start,
		End:      end,
		MaxCloud: sess.MaxCloud,
		Scale:    req.Scale,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	stats, err := s.client.Statistics(c.Request.Context(), result)
	if err != nil {
		respondError(c, err)
		return
	}

	lo, hi := sess.Index.Range()
	vis := index.Vis(sess.Index)
	c.JSON(http.StatusOK, gin.H{
		"method":      result.Aggregation,
		"image_count": count,
		"scale":       result.Scale,
		"tile_url":    s.client.TileURL(result),
		"window": gin.H{
			"start": result.Start.Format(dateLayout),
			"end":   result.End.Format(dateLayout),
		},
		"stats": gin.H{
			"mean":   stats.Mean,
			"min":    stats.Min,
			"max":    stats.Max,
			"stddev": stats.StDev,
			"p5":     stats.P5,
			"p95":    stats.P95,
		},
		"range": gin.H{"min": lo, "max": hi},
		"vis":   gin.H{"min": vis.Min, "max": vis.Max, "palette": vis.Palette},
	})
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date, want YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date, want YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date precedes start date")
	}
	return start, end.Add(24*time.Hour - time.Second), nil
}

type timeSeriesRequest struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	MaxImages int    `json:"max_images"`
}

func (s *Server) handleTimeSeries(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req timeSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	start, end, err := parseRange(req.Start, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	images, err := s.catalog.Search(c.Request.Context(), s.client, sentinelhub.CatalogQuery{
		Sensor:   sess.Sensor,
		AOI:      sess.AOI,
		Start:    start,
		End:      end,
		MaxCloud: sess.MaxCloud,
		Limit:    timeseries.HardMaxImages,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := timeseries.Aggregate(c.Request.Context(), s.client, sess.AOI, sess.Sensor, sess.Index, images, timeseries.Options{
		MaxImages: req.MaxImages,
		MaxCloud:  sess.MaxCloud,
	})
	if err != nil {
		// Raw points still come back on insufficient data; surface both.
		if errors.Is(err, timeseries.ErrInsufficientData) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  err.Error(),
				"points": pointsJSON(result.Points),
			})
			return
		}
		respondError(c, err)
		return
	}

	s.registry.Update(sess.ID, func(sess *session.Session) {
		sess.Series = &result
	})

	out := gin.H{
		"points":   pointsJSON(result.Points),
		"failures": result.Failures,
		"trend":    result.Trend,
		"summary": gin.H{
			"mean":   result.Summary.Mean,
			"stddev": result.Summary.StdDev,
			"min":    result.Summary.Min,
			"max":    result.Summary.Max,
		},
	}
	if result.Fit != nil {
		fit := gin.H{
			"slope_per_day": result.Fit.SlopePerDay,
			"intercept":     result.Fit.Intercept,
		}
		if result.Fit.HasR2 {
			fit["r2"] = result.Fit.R2
		}
		out["fit"] = fit
	}
	c.JSON(http.StatusOK, out)
}

func pointsJSON(points []timeseries.Point) []gin.H {
	out := make([]gin.H, 0, len(points))
	for _, p := range points {
		out = append(out, gin.H{"date": p.Date.Format(dateLayout), "value": p.Value})
	}
	return out
}

type compareRequest struct {
	Method      string `json:"method"`
	BeforeStart string `json:"before_start"`
	BeforeEnd   string `json:"before_end"`
	AfterStart  string `json:"after_start"`
	AfterEnd    string `json:"after_end"`
}

func (s *Server) handleCompare(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	beforeStart, beforeEnd, err := parseRange(req.BeforeStart, req.BeforeEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	afterStart, afterEnd, err := parseRange(req.AfterStart, req.AfterEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := compare.Run(c.Request.Context(), s.client, compare.Request{
		AOI:      sess.AOI,
		Sensor:   sess.Sensor,
		Index:    sess.Index,
		Method:   composite.ParseMethod(req.Method),
		Before:   compare.Period{Start: beforeStart, End: beforeEnd},
		After:    compare.Period{Start: afterStart, End: afterEnd},
		MaxCloud: sess.MaxCloud,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"before":     sideJSON(result.Before),
		"after":      sideJSON(result.After),
		"mean_delta": result.MeanDelta,
	})
}

func sideJSON(side compare.Side) gin.H {
	return gin.H{
		"image_count": side.ImageCount,
		"tile_url":    side.TileURL,
		"mean":        side.Stats.Mean,
		"stddev":      side.Stats.StDev,
	}
}

func (s *Server) handleExportCSV(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	if sess.Series == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no time series computed for this session"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="timeseries.csv"`)
	if err := timeseries.WriteCSV(c.Writer, *sess.Series); err != nil {
		respondError(c, err)
	}
}

func (s *Server) handleDroneAnalyze(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	defer file.Close()

	img, _, err := decodeUpload(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	idx := index.ParseRGB(c.Request.FormValue("index"))
	analysis, err := drone.Analyze(img, idx)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lo, hi := idx.Range()
	c.JSON(http.StatusOK, gin.H{
		"index":       idx.String(),
		"description": idx.Description(),
		"width":       analysis.Width,
		"height":      analysis.Height,
		"mean":        analysis.Mean,
		"min":         analysis.Min,
		"max":         analysis.Max,
		"p2":          analysis.Percentile(2),
		"p98":         analysis.Percentile(98),
		"range":       gin.H{"min": lo, "max": hi},
	})
}

func decodeUpload(r io.Reader) (img image.Image, format string, err error) {
	img, format, err = image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("unsupported image upload: %v", err)
	}
	return img, format, nil
}

func (s *Server) handleVisitors(c *gin.Context) {
	total, unique := s.visitors.Counts()
	c.JSON(http.StatusOK, gin.H{"total": total, "unique": unique})
}
