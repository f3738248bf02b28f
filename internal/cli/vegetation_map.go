package cli

import (
	"context"
	"fmt"

	"github.com/agriscope/agriscope/internal/composite"
	"github.com/agriscope/agriscope/internal/export"
	"github.com/agriscope/agriscope/internal/notification"
	"github.com/agriscope/agriscope/internal/sensor"
)

// VegetationMap builds a composite over a date range, prints its spatial
// statistics and exports the raster.
func (c *CLI) VegetationMap() {
	area, err := ReadAOI()
	if err != nil {
		PrintError(err.Error())
		return
	}

	selectedSensor, err := SelectSensor()
	if err != nil {
		PrintError(err.Error())
		return
	}
	selectedIndex, err := SelectIndex()
	if err != nil {
		PrintError(err.Error())
		return
	}

	methods := composite.AllMethods()
	fmt.Printf("%s\nComposite methods:%s\n", ColorGreen, ColorReset)
	for i, m := range methods {
		fmt.Printf("%s%d. %s%s\n", ColorGreen, i+1, m, ColorReset)
	}
	methodChoice, err := ReadInt("Enter the composite method: ", 1, len(methods))
	if err != nil {
		PrintError(err.Error())
		return
	}

	start, end, err := ReadDateRange()
	if err != nil {
		PrintError(err.Error())
		return
	}
	maxCloud, err := ReadFloat("Enter max cloud cover percent (0-100): ", 0, 100)
	if err != nil {
		PrintError(err.Error())
		return
	}

	scale := sensor.AdaptiveScale(area.AreaKm2(), selectedSensor)
	fmt.Printf("%sArea: %.1f km2, sampling at %dm%s\n", ColorBlue, area.AreaKm2(), scale, ColorReset)

	ctx := context.Background()
	result, count, err := composite.Build(ctx, c.client, composite.Request{
		AOI:      area,
		Sensor:   selectedSensor,
		Index:    selectedIndex,
		Method:   methods[methodChoice-1],
		Start:    start,
		End:      end,
		MaxCloud: maxCloud,
	})
	if err != nil {
		PrintError(fmt.Sprintf("building composite: %s", err.Error()))
		return
	}

	stats, err := c.client.Statistics(ctx, result)
	if err != nil {
		PrintError(fmt.Sprintf("computing statistics: %s", err.Error()))
		return
	}

	fmt.Printf("%s\n%s over %d image(s):%s\n", ColorGreen, selectedIndex, count, ColorReset)
	fmt.Printf("%s  mean:   %.4f%s\n", ColorGreen, stats.Mean, ColorReset)
	fmt.Printf("%s  stddev: %.4f%s\n", ColorGreen, stats.StDev, ColorReset)
	fmt.Printf("%s  min:    %.4f  max: %.4f%s\n", ColorGreen, stats.Min, stats.Max, ColorReset)
	fmt.Printf("%s  p5:     %.4f  p95: %.4f%s\n", ColorGreen, stats.P5, stats.P95, ColorReset)

	if url := c.client.TileURL(result); url != "" {
		fmt.Printf("%sTile URL: %s%s\n", ColorBlue, url, ColorReset)
	}

	path, err := export.GeoTIFF(ctx, c.client, result)
	if err != nil {
		PrintError(fmt.Sprintf("exporting GeoTIFF: %s", err.Error()))
		return
	}

	PrintSuccess(fmt.Sprintf("Successful analysis!\n Resultant raster located at: %s", path))
	notification.SendDiscordAnalysisNotification(fmt.Sprintf(
		"Agriscope CLI\n\n%s map over %.1f km2 finished.\nMean: %.4f\nRaster: %s",
		selectedIndex, area.AreaKm2(), stats.Mean, path))
}
