package index

// Index is one of the supported multispectral vegetation indices.
type Index int

const (
	NDVI Index = iota
	EVI
	SAVI
	NDWI
	NDMI
	GNDVI
	NBR
)

// DefaultSoilFactor is the SAVI soil brightness adjustment constant.
const DefaultSoilFactor = 0.5

var indexNames = map[Index]string{
	NDVI:  "NDVI",
	EVI:   "EVI",
	SAVI:  "SAVI",
	NDWI:  "NDWI",
	NDMI:  "NDMI",
	GNDVI: "GNDVI",
	NBR:   "NBR",
}

var indexDescriptions = map[Index]string{
	NDVI:  "Normalized Difference Vegetation Index",
	EVI:   "Enhanced Vegetation Index",
	SAVI:  "Soil Adjusted Vegetation Index",
	NDWI:  "Normalized Difference Water Index",
	NDMI:  "Normalized Difference Moisture Index",
	GNDVI: "Green NDVI",
	NBR:   "Normalized Burn Ratio",
}

// Bands holds canonical surface reflectance values for one sample.
type Bands struct {
	Blue  float64
	Green float64
	Red   float64
	NIR   float64
	SWIR1 float64
	SWIR2 float64
}

func All() []Index {
	return []Index{NDVI, EVI, SAVI, NDWI, NDMI, GNDVI, NBR}
}

// Parse resolves an index name. Unknown names fall back to NDVI, matching
// the dashboard's behavior of never rejecting an index selection.
func Parse(name string) Index {
	for idx, n := range indexNames {
		if n == name {
			return idx
		}
	}
	return NDVI
}

func (i Index) String() string {
	if name, ok := indexNames[i]; ok {
		return name
	}
	return "NDVI"
}

func (i Index) Description() string {
	return indexDescriptions[i]
}

func safeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Evaluate computes the index for a single sample using the default SAVI
// soil factor.
func (i Index) Evaluate(b Bands) float64 {
	return i.EvaluateSoil(b, DefaultSoilFactor)
}

// EvaluateSoil computes the index for a single sample. The soil factor is
// only used by SAVI.
func (i Index) EvaluateSoil(b Bands, soil float64) float64 {
	switch i {
	case EVI:
		return safeDivide(2.5*(b.NIR-b.Red), b.NIR+6*b.Red-7.5*b.Blue+1)
	case SAVI:
		return safeDivide((1+soil)*(b.NIR-b.Red), b.NIR+b.Red+soil)
	case NDWI:
		return safeDivide(b.Green-b.NIR, b.Green+b.NIR)
	case NDMI:
		return safeDivide(b.NIR-b.SWIR1, b.NIR+b.SWIR1)
	case GNDVI:
		return safeDivide(b.NIR-b.Green, b.NIR+b.Green)
	case NBR:
		return safeDivide(b.NIR-b.SWIR2, b.NIR+b.SWIR2)
	default: // NDVI
		return safeDivide(b.NIR-b.Red, b.NIR+b.Red)
	}
}

// Range returns the documented value range of the index.
func (i Index) Range() (float64, float64) {
	if i == SAVI {
		return -1.5, 1.5
	}
	return -1, 1
}
