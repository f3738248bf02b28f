package cli

import (
	"fmt"
	"os"

	"github.com/agriscope/agriscope/internal/sentinelhub"
)

// CLI holds the shared remote client used by all menu handlers.
type CLI struct {
	client *sentinelhub.Client
	port   int
}

func New(client *sentinelhub.Client, port int) *CLI {
	return &CLI{client: client, port: port}
}

type menuOption struct {
	title   string
	handler func()
}

// ShowMenu displays the main menu and handles user input
func (c *CLI) ShowMenu() {
	menuOptions := []menuOption{
		{"Build a vegetation index map for an area of interest", c.VegetationMap},
		{"Aggregate a vegetation index time series with trend analysis", c.TimeSeries},
		{"Compare an area of interest between two periods", c.ComparePeriods},
		{"List available satellite images for an area of interest", c.ListImages},
		{"Analyze drone RGB images in a folder", c.DroneAnalysis},
		{"Start the dashboard HTTP API", c.Serve},
		{"Exit the application", func() { fmt.Println("Exiting..."); os.Exit(0) }},
	}

	for {
		fmt.Println("\033[34m===================\033[0m")
		for i, opt := range menuOptions {
			fmt.Printf("\033[34m%d. %s\033[0m\n", i+1, opt.title)
		}
		fmt.Println("\033[34mPlease enter your choice:\033[0m")

		var choice int
		_, err := fmt.Scan(&choice)
		if err != nil {
			fmt.Printf("\n\033[31mInvalid input. Please enter a number.\033[0m\n")
			fmt.Scanln() // Clear the buffer
			continue
		}

		if choice < 1 || choice > len(menuOptions) {
			fmt.Println("\033[31mInvalid choice. Please try again.\033[0m")
			continue
		}

		menuOptions[choice-1].handler()
	}
}
