package cli

import (
	"context"
	"fmt"

	"github.com/agriscope/agriscope/internal/compare"
	"github.com/agriscope/agriscope/internal/composite"
)

// ComparePeriods measures the same AOI over two date ranges and reports
// the change.
func (c *CLI) ComparePeriods() {
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

	PrintInfo("\nBefore period:\n")
	beforeStart, beforeEnd, err := ReadDateRange()
	if err != nil {
		PrintError(err.Error())
		return
	}
	PrintInfo("\nAfter period:\n")
	afterStart, afterEnd, err := ReadDateRange()
	if err != nil {
		PrintError(err.Error())
		return
	}
	maxCloud, err := ReadFloat("Enter max cloud cover percent (0-100): ", 0, 100)
	if err != nil {
		PrintError(err.Error())
		return
	}

	result, err := compare.Run(context.Background(), c.client, compare.Request{
		AOI:      area,
		Sensor:   selectedSensor,
		Index:    selectedIndex,
		Method:   composite.Median,
		Before:   compare.Period{Start: beforeStart, End: beforeEnd},
		After:    compare.Period{Start: afterStart, End: afterEnd},
		MaxCloud: maxCloud,
	})
	if err != nil {
		PrintError(fmt.Sprintf("comparing periods: %s", err.Error()))
		return
	}

	fmt.Printf("%s\nBefore: mean %.4f over %d image(s)%s\n",
		ColorGreen, result.Before.Stats.Mean, result.Before.ImageCount, ColorReset)
	fmt.Printf("%sAfter:  mean %.4f over %d image(s)%s\n",
		ColorGreen, result.After.Stats.Mean, result.After.ImageCount, ColorReset)

	direction := "increased"
	if result.MeanDelta < 0 {
		direction = "decreased"
	}
	PrintSuccess(fmt.Sprintf("Mean %s %s by %.4f", selectedIndex, direction, result.MeanDelta))
}
