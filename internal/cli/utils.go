package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agriscope/agriscope/internal/aoi"
	"github.com/agriscope/agriscope/internal/index"
	"github.com/agriscope/agriscope/internal/sensor"
)

// Colors for consistent UI
const (
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorReset  = "\033[0m"
)

// PrintWarning displays a warning message with consistent formatting
func PrintWarning(message string) {
	fmt.Printf("%s\nWarning:%s\n", ColorYellow, ColorReset)
	fmt.Printf("%s%s%s\n", ColorYellow, message, ColorReset)
}

// PrintError displays an error message with consistent formatting
func PrintError(message string) {
	fmt.Printf("\n%sError: %s%s\n", ColorRed, message, ColorReset)
}

// PrintSuccess displays a success message with consistent formatting
func PrintSuccess(message string) {
	fmt.Printf("\n%s%s%s\n", ColorGreen, message, ColorReset)
}

// PrintInfo displays an info message with consistent formatting
func PrintInfo(message string) {
	fmt.Printf("%s%s%s", ColorBlue, message, ColorReset)
}

// ReadString reads a string from stdin with trimming
func ReadString(prompt string) string {
	reader := bufio.NewReader(os.Stdin)
	PrintInfo(prompt)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// ReadInt reads an integer from stdin with validation
func ReadInt(prompt string, min, max int) (int, error) {
	input := ReadString(prompt)

	value, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", input)
	}

	if value < min || value > max {
		return 0, fmt.Errorf("value must be between %d and %d", min, max)
	}

	return value, nil
}

// ReadFloat reads a float from stdin with validation
func ReadFloat(prompt string, min, max float64) (float64, error) {
	input := ReadString(prompt)

	value, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", input)
	}

	if value < min || value > max {
		return 0, fmt.Errorf("value must be between %g and %g", min, max)
	}

	return value, nil
}

// ReadDate reads a date from stdin with validation
func ReadDate(prompt string) (time.Time, error) {
	input := ReadString(prompt)
	if input == "today" {
		return time.Now(), nil
	}
	date, err := time.Parse("2006-01-02", input)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s. Please use YYYY-MM-DD", input)
	}
	return date, nil
}

// ReadDateRange reads end date and number of days to calculate start date
func ReadDateRange() (time.Time, time.Time, error) {
	endDate, err := ReadDate("Enter the end date (YYYY-MM-DD or 'today'): ")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	days, err := ReadInt("Enter number of days to look back: ", 1, 3650)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	startDate := endDate.AddDate(0, 0, -days)
	return startDate, endDate, nil
}

// SelectSensor displays available sensors and returns the selected one
func SelectSensor() (sensor.Sensor, error) {
	sensors := sensor.All()
	fmt.Printf("%s\nAvailable sensors:%s\n", ColorGreen, ColorReset)
	for i, s := range sensors {
		fmt.Printf("%s%d. %s (%dm native)%s\n", ColorGreen, i+1, s, s.NativeScale(), ColorReset)
	}

	choice, err := ReadInt("Enter the number of the sensor you want to use: ", 1, len(sensors))
	if err != nil {
		return 0, err
	}
	return sensors[choice-1], nil
}

// SelectIndex displays the multispectral indices and returns the selected one
func SelectIndex() (index.Index, error) {
	indices := index.All()
	fmt.Printf("%s\nAvailable indices:%s\n", ColorGreen, ColorReset)
	for i, idx := range indices {
		fmt.Printf("%s%d. %s - %s%s\n", ColorGreen, i+1, idx, idx.Description(), ColorReset)
	}

	choice, err := ReadInt("Enter the number of the index you want to use: ", 1, len(indices))
	if err != nil {
		return 0, err
	}
	return indices[choice-1], nil
}

// SelectRGBIndex displays the RGB indices and returns the selected one
func SelectRGBIndex() (index.RGBIndex, error) {
	indices := index.AllRGB()
	fmt.Printf("%s\nAvailable RGB indices:%s\n", ColorGreen, ColorReset)
	for i, idx := range indices {
		fmt.Printf("%s%d. %s - %s%s\n", ColorGreen, i+1, idx, idx.Description(), ColorReset)
	}

	choice, err := ReadInt("Enter the number of the index you want to use: ", 1, len(indices))
	if err != nil {
		return 0, err
	}
	return indices[choice-1], nil
}

// ReadAOI asks for an area of interest as a file, a bounding box or a
// buffered point.
func ReadAOI() (aoi.AreaOfInterest, error) {
	fmt.Printf("%s\nArea of interest:%s\n", ColorGreen, ColorReset)
	fmt.Printf("%s1. Load from file (.geojson, .json or any OGR-supported format)%s\n", ColorGreen, ColorReset)
	fmt.Printf("%s2. Bounding box%s\n", ColorGreen, ColorReset)
	fmt.Printf("%s3. Point with buffer%s\n", ColorGreen, ColorReset)

	choice, err := ReadInt("Enter your choice: ", 1, 3)
	if err != nil {
		return aoi.AreaOfInterest{}, err
	}

	switch choice {
	case 1:
		path := ReadString("Enter the file path: ")
		return aoi.FromFile(path)
	case 2:
		minLon, err := ReadFloat("Enter min longitude: ", -180, 180)
		if err != nil {
			return aoi.AreaOfInterest{}, err
		}
		minLat, err := ReadFloat("Enter min latitude: ", -90, 90)
		if err != nil {
			return aoi.AreaOfInterest{}, err
		}
		maxLon, err := ReadFloat("Enter max longitude: ", -180, 180)
		if err != nil {
			return aoi.AreaOfInterest{}, err
		}
		maxLat, err := ReadFloat("Enter max latitude: ", -90, 90)
		if err != nil {
			return aoi.AreaOfInterest{}, err
		}
		return aoi.FromBoundingBox(minLon, minLat, maxLon, maxLat)
	default:
		lon, err := ReadFloat("Enter longitude: ", -180, 180)
		if err != nil {
			return aoi.AreaOfInterest{}, err
		}
		lat, err := ReadFloat("Enter latitude: ", -90, 90)
		if err != nil {
			return aoi.AreaOfInterest{}, err
		}
		buffer, err := ReadFloat("Enter buffer radius in km: ", 0.1, 500)
		if err != nil {
			return aoi.AreaOfInterest{}, err
		}
		return aoi.FromBufferedPoint(lon, lat, buffer)
	}
}
