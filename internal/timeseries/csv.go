package timeseries

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

type csvRow struct {
	Date  string  `csv:"date"`
	Value float64 `csv:"value"`
}

// WriteCSV exports the series for download.
func WriteCSV(w io.Writer, result Result) error {
	rows := make([]csvRow, 0, len(result.Points))
	for _, p := range result.Points {
		rows = append(rows, csvRow{Date: p.Date.Format("2006-01-02"), Value: p.Value})
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write time series CSV: %w", err)
	}
	return nil
}
