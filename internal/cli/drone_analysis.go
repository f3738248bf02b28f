package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agriscope/agriscope/internal/drone"
)

// DroneAnalysis runs an RGB index over every image in a folder and writes
// a colormap PNG next to each input.
func (c *CLI) DroneAnalysis() {
	PrintWarning("Input images should be '.png' or '.jpg' files; a colormap PNG is written next to each one.")

	folder := ReadString("Enter the folder path: ")
	entries, err := os.ReadDir(folder)
	if err != nil {
		PrintError(fmt.Sprintf("reading folder: %s", err.Error()))
		return
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(folder, entry.Name()))
		}
	}
	if len(paths) == 0 {
		PrintWarning("No images found in the folder.")
		return
	}

	idx, err := SelectRGBIndex()
	if err != nil {
		PrintError(err.Error())
		return
	}

	result := drone.AnalyzeBatch(paths, idx, true)

	fmt.Printf("%s\n%s results:%s\n", ColorGreen, idx, ColorReset)
	for _, item := range result.Items {
		if item.Err != nil {
			fmt.Printf("%s  %s: %s%s\n", ColorRed, filepath.Base(item.Path), item.Err.Error(), ColorReset)
			continue
		}
		fmt.Printf("%s  %s: mean %.4f (min %.4f, max %.4f)%s\n",
			ColorGreen, filepath.Base(item.Path), item.Analysis.Mean, item.Analysis.Min, item.Analysis.Max, ColorReset)
	}

	if result.Failures > 0 {
		PrintWarning(fmt.Sprintf("%d image(s) failed and were skipped.", result.Failures))
	}
	PrintSuccess(fmt.Sprintf("Analyzed %d image(s).", len(paths)-result.Failures))
}
