package sensor

// AdaptiveScale picks a sampling resolution in meters for statistics over an
// area. Larger areas use coarser resolution so remote reductions stay inside
// the service's pixel budget; the result is never finer than the sensor's
// native resolution.
func AdaptiveScale(areaKm2 float64, s Sensor) int {
	base := s.NativeScale()

	switch {
	case areaKm2 > 50000: // country scale
		return max(5000, base)
	case areaKm2 > 10000: // regional
		return max(2000, base)
	case areaKm2 > 1000: // state
		return max(500, base)
	case areaKm2 > 100: // county
		return max(100, base)
	default: // farm
		return base
	}
}
