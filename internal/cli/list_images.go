package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/agriscope/agriscope/internal/sentinelhub"
	"github.com/agriscope/agriscope/internal/utils"
)

// ListImages searches the catalog and prints the scenes oldest first.
func (c *CLI) ListImages() {
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

	images, err := c.client.Catalog(context.Background(), sentinelhub.CatalogQuery{
		Sensor:   selectedSensor,
		AOI:      area,
		Start:    start,
		End:      end,
		MaxCloud: maxCloud,
	})
	if err != nil {
		PrintError(fmt.Sprintf("searching catalog: %s", err.Error()))
		return
	}
	if len(images) == 0 {
		PrintWarning("No images found for the given period.")
		return
	}

	byDate := make(map[time.Time]sentinelhub.ImageDescriptor, len(images))
	for _, img := range images {
		byDate[img.Date] = img
	}

	fmt.Printf("%s\n%d image(s) found:%s\n", ColorGreen, len(images), ColorReset)
	for _, date := range utils.GetSortedKeys(byDate, true) {
		img := byDate[date]
		fmt.Printf("%s  %s  cloud %5.1f%%  %s%s\n",
			ColorGreen, date.Format("2006-01-02"), img.CloudCover, img.ID, ColorReset)
	}
}
