package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agriscope/agriscope/internal/properties"
	"github.com/agriscope/agriscope/internal/sentinelhub"
	"github.com/agriscope/agriscope/internal/timeseries"
)

// Dir is where exported artifacts land, one folder per day.
func Dir() (string, error) {
	dir := filepath.Join(properties.RootPath(), "output", time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %v", err)
	}
	return dir, nil
}

func fileName(res sentinelhub.IndexResult, ext string) string {
	return fmt.Sprintf("%s_%s_%s_%s.%s",
		strings.ToLower(res.Index.String()),
		strings.ReplaceAll(strings.ToLower(res.Sensor.String()), " ", "-"),
		res.Start.Format("20060102"),
		res.End.Format("20060102"),
		ext,
	)
}

// GeoTIFF materializes the index raster locally and returns the written path.
func GeoTIFF(ctx context.Context, client *sentinelhub.Client, res sentinelhub.IndexResult) (string, error) {
	data, err := client.DownloadGeoTIFF(ctx, res)
	if err != nil {
		return "", err
	}
	return write(fileName(res, "tiff"), data)
}

// Thumbnail saves a small PNG preview of the raster.
func Thumbnail(ctx context.Context, client *sentinelhub.Client, res sentinelhub.IndexResult) (string, error) {
	data, err := client.Thumbnail(ctx, res)
	if err != nil {
		return "", err
	}
	return write(fileName(res, "png"), data)
}

// TimeSeriesCSV exports the aggregated points as date,value rows.
func TimeSeriesCSV(result timeseries.Result, name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %v", path, err)
	}
	defer file.Close()
	if err := timeseries.WriteCSV(file, result); err != nil {
		return "", err
	}
	return path, nil
}

func write(name string, data []byte) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %v", path, err)
	}
	return path, nil
}
