package utils

// Clamp01 bounds a score to the [0, 1] range. Every category score and
// the overall risk pass through here before leaving the scoring layer.
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
