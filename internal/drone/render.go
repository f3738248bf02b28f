package drone

import (
	"fmt"
	"math"
	"strconv"

	"github.com/fogleman/gg"
)

var rgbPalette = []string{"d73027", "fc8d59", "fee08b", "d9ef8b", "91cf60", "1a9850"}

type rgbColor struct {
	r, g, b float64
}

func parseHex(hex string) (rgbColor, error) {
	if len(hex) != 6 {
		return rgbColor{}, fmt.Errorf("invalid hex color %q", hex)
	}
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return rgbColor{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return rgbColor{
		r: float64(value>>16&0xff) / 255,
		g: float64(value>>8&0xff) / 255,
		b: float64(value&0xff) / 255,
	}, nil
}

// interpolate maps t in [0, 1] onto the palette with linear blending
// between adjacent stops.
func interpolate(palette []rgbColor, t float64) rgbColor {
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(palette)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return palette[lower]
	}
	frac := pos - float64(lower)
	a, b := palette[lower], palette[upper]
	return rgbColor{
		r: a.r*(1-frac) + b.r*frac,
		g: a.g*(1-frac) + b.g*frac,
		b: a.b*(1-frac) + b.b*frac,
	}
}

// RenderColormap writes the analysis grid as a PNG heatmap. Values are
// stretched between the 2nd and 98th percentiles so outliers don't
// flatten the rest of the image.
func RenderColormap(analysis Analysis, outputPath string) error {
	palette := make([]rgbColor, len(rgbPalette))
	for i, hex := range rgbPalette {
		color, err := parseHex(hex)
		if err != nil {
			return err
		}
		palette[i] = color
	}

	low := analysis.Percentile(2)
	high := analysis.Percentile(98)
	span := high - low
	if span == 0 {
		span = 1
	}

	dc := gg.NewContext(analysis.Width, analysis.Height)
	for y := 0; y < analysis.Height; y++ {
		for x := 0; x < analysis.Width; x++ {
			t := (analysis.Grid[y][x] - low) / span
			color := interpolate(palette, t)
			dc.SetRGB(color.r, color.g, color.b)
			dc.SetPixel(x, y)
		}
	}

	if err := dc.SavePNG(outputPath); err != nil {
		return fmt.Errorf("failed to save colormap to %s: %w", outputPath, err)
	}
	return nil
}
