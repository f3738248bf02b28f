package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/agriscope/agriscope/internal/export"
	"github.com/agriscope/agriscope/internal/sentinelhub"
	"github.com/agriscope/agriscope/internal/timeseries"
)

// TimeSeries aggregates the index over time, prints the fitted trend and
// offers a CSV export.
func (c *CLI) TimeSeries() {
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
	maxImages, err := ReadInt(
		fmt.Sprintf("Enter max images to process (1-%d): ", timeseries.HardMaxImages),
		1, timeseries.HardMaxImages)
	if err != nil {
		PrintError(err.Error())
		return
	}

	ctx := context.Background()
	images, err := c.client.Catalog(ctx, sentinelhub.CatalogQuery{
		Sensor:   selectedSensor,
		AOI:      area,
		Start:    start,
		End:      end,
		MaxCloud: maxCloud,
		Limit:    timeseries.HardMaxImages,
	})
	if err != nil {
		PrintError(fmt.Sprintf("searching catalog: %s", err.Error()))
		return
	}
	if len(images) == 0 {
		PrintWarning("No images found for the given period. Try a wider range or higher cloud threshold.")
		return
	}

	result, err := timeseries.Aggregate(ctx, c.client, area, selectedSensor, selectedIndex, images, timeseries.Options{
		MaxImages:    maxImages,
		MaxCloud:     maxCloud,
		ShowProgress: true,
	})
	if err != nil {
		if errors.Is(err, timeseries.ErrInsufficientData) {
			PrintWarning(fmt.Sprintf("Only %d usable observation(s); need at least 2 for a trend.", len(result.Points)))
			for _, p := range result.Points {
				fmt.Printf("%s  %s  %.4f%s\n", ColorYellow, p.Date.Format("2006-01-02"), p.Value, ColorReset)
			}
			return
		}
		PrintError(fmt.Sprintf("aggregating series: %s", err.Error()))
		return
	}

	fmt.Printf("%s\n%s series, %d point(s), %d failed image(s):%s\n",
		ColorGreen, selectedIndex, len(result.Points), result.Failures, ColorReset)
	for _, p := range result.Points {
		fmt.Printf("%s  %s  %.4f%s\n", ColorGreen, p.Date.Format("2006-01-02"), p.Value, ColorReset)
	}
	fmt.Printf("%s  mean: %.4f  stddev: %.4f%s\n", ColorGreen, result.Summary.Mean, result.Summary.StdDev, ColorReset)
	fmt.Printf("%s  trend: %s%s\n", ColorGreen, result.Trend, ColorReset)
	if result.Fit != nil {
		fmt.Printf("%s  slope: %.6f per day%s\n", ColorGreen, result.Fit.SlopePerDay, ColorReset)
		if result.Fit.HasR2 {
			fmt.Printf("%s  r2:    %.4f%s\n", ColorGreen, result.Fit.R2, ColorReset)
		}
	}

	answer := ReadString("Export as CSV? (y/n): ")
	if answer == "y" || answer == "Y" {
		name := fmt.Sprintf("%s_timeseries_%s_%s.csv",
			selectedIndex, start.Format("20060102"), end.Format("20060102"))
		path, err := export.TimeSeriesCSV(result, name)
		if err != nil {
			PrintError(fmt.Sprintf("writing CSV: %s", err.Error()))
			return
		}
		PrintSuccess(fmt.Sprintf("Series exported to: %s", path))
	}
}
