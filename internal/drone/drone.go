package drone

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"sort"

	"github.com/agriscope/agriscope/internal/index"
)

// Analysis is the locally-computed index grid for one uploaded image.
type Analysis struct {
	Index  index.RGBIndex
	Width  int
	Height int
	Grid   [][]float64
	Mean   float64
	Min    float64
	Max    float64
}

// LoadImage decodes an uploaded PNG or JPEG.
func LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// Analyze computes the RGB index per pixel. Channels are normalized to
// [0, 1] before the formula is applied; no remote service is involved.
func Analyze(img image.Image, idx index.RGBIndex) (Analysis, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return Analysis{}, fmt.Errorf("image has no pixels")
	}

	analysis := Analysis{
		Index:  idx,
		Width:  width,
		Height: height,
		Grid:   make([][]float64, height),
		Min:    math.Inf(1),
		Max:    math.Inf(-1),
	}

	var sum float64
	for y := 0; y < height; y++ {
		analysis.Grid[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			value := idx.Evaluate(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
			)
			analysis.Grid[y][x] = value
			sum += value
			analysis.Min = math.Min(analysis.Min, value)
			analysis.Max = math.Max(analysis.Max, value)
		}
	}
	analysis.Mean = sum / float64(width*height)
	return analysis, nil
}

// Percentile returns the p-th percentile of the grid values, used for the
// display stretch so a few outlier pixels don't wash out the colormap.
func (a Analysis) Percentile(p float64) float64 {
	values := make([]float64, 0, a.Width*a.Height)
	for _, row := range a.Grid {
		values = append(values, row...)
	}
	sort.Float64s(values)

	if len(values) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(values)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return values[lower]
	}
	frac := rank - float64(lower)
	return values[lower]*(1-frac) + values[upper]*frac
}
