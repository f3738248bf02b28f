package index

// RGBIndex is one of the indices computable from plain RGB imagery, for
// drone and camera uploads that carry no near-infrared band.
type RGBIndex int

const (
	RGBNDVI RGBIndex = iota
	NGRDI
	VARI
	GLI
	ExG
	ExR
	ExGR
	GRVI
	MGRVI
	RGBVI
)

var rgbNames = map[RGBIndex]string{
	RGBNDVI: "RGB-NDVI",
	NGRDI:   "NGRDI",
	VARI:    "VARI",
	GLI:     "GLI",
	ExG:     "ExG",
	ExR:     "ExR",
	ExGR:    "ExGR",
	GRVI:    "GRVI",
	MGRVI:   "MGRVI",
	RGBVI:   "RGBVI",
}

var rgbDescriptions = map[RGBIndex]string{
	RGBNDVI: "RGB approximation of NDVI using green and red",
	NGRDI:   "Normalized Green-Red Difference Index",
	VARI:    "Visible Atmospherically Resistant Index",
	GLI:     "Green Leaf Index",
	ExG:     "Excess Green, normalized",
	ExR:     "Excess Red, highlights stressed vegetation",
	ExGR:    "Excess Green minus Excess Red",
	GRVI:    "Green-Red Vegetation Index",
	MGRVI:   "Modified GRVI, enhanced contrast",
	RGBVI:   "RGB Vegetation Index",
}

func AllRGB() []RGBIndex {
	return []RGBIndex{RGBNDVI, NGRDI, VARI, GLI, ExG, ExR, ExGR, GRVI, MGRVI, RGBVI}
}

// ParseRGB resolves an RGB index name, falling back to ExG for unknown
// names.
func ParseRGB(name string) RGBIndex {
	for idx, n := range rgbNames {
		if n == name {
			return idx
		}
	}
	return ExG
}

func (i RGBIndex) String() string {
	if name, ok := rgbNames[i]; ok {
		return name
	}
	return "ExG"
}

func (i RGBIndex) Description() string {
	return rgbDescriptions[i]
}

// nonZero guards ratio denominators: a zero denominator is replaced with 1
// instead of raising a division error.
func nonZero(d float64) float64 {
	if d == 0 {
		return 1
	}
	return d
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Evaluate computes the index for one pixel. Channels must be normalized to
// [0, 1]. The result is clipped to the index's documented range.
func (i RGBIndex) Evaluate(r, g, b float64) float64 {
	lo, hi := i.Range()

	var v float64
	switch i {
	case RGBNDVI, NGRDI, GRVI:
		v = (g - r) / nonZero(g+r)
	case VARI:
		v = (g - r) / nonZero(g+r-b)
	case GLI:
		v = (2*g - r - b) / nonZero(2*g+r+b)
	case ExG:
		// Raw excess green spans [-2, 2]; rescaled to [0, 1].
		v = (2*g - r - b + 1) / 2
	case ExR:
		v = 1.4*r - g
	case ExGR:
		v = (2*g - r - b) - (1.4*r - g)
	case MGRVI:
		v = (g*g - r*r) / nonZero(g*g+r*r)
	case RGBVI:
		v = (g*g - b*r) / nonZero(g*g+b*r)
	default:
		v = (2*g - r - b + 1) / 2
	}

	return clip(v, lo, hi)
}

// Range returns the documented value range of the index.
func (i RGBIndex) Range() (float64, float64) {
	switch i {
	case ExG:
		return 0, 1
	case ExR:
		return -1, 1.4
	case ExGR:
		return -3.4, 3
	default:
		return -1, 1
	}
}
