package index

// VisParams holds default visualization stretch and palette for an index.
type VisParams struct {
	Min     float64
	Max     float64
	Palette []string
}

var (
	vegPalette   = []string{"d73027", "fc8d59", "fee08b", "d9ef8b", "91cf60", "1a9850"}
	waterPalette = []string{"8c510a", "d8b365", "f6e8c3", "c7eae5", "5ab4ac", "01665e"}
	burnPalette  = []string{"1a9850", "91cf60", "fee08b", "fc8d59", "d73027", "4d4d4d"}
)

// Vis returns the default visualization parameters for an index.
func Vis(i Index) VisParams {
	switch i {
	case NDWI, NDMI:
		return VisParams{Min: -0.5, Max: 0.5, Palette: waterPalette}
	case NBR:
		return VisParams{Min: -0.5, Max: 0.5, Palette: burnPalette}
	default:
		return VisParams{Min: -0.2, Max: 0.8, Palette: vegPalette}
	}
}
