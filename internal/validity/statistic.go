package validity

import (
	"math"
)

// Discrepancy computes the mean and max absolute deviation of the estimated
// coverage probabilities from the nominal target 1-alpha. The max never falls
// below the mean.
func Discrepancy(r []float64, alpha float64) (meanAbs, maxAbs float64) {
	if len(r) == 0 {
		return 0, 0
	}
	target := 1 - alpha
	sum := 0.0
	for _, v := range r {
		dev := math.Abs(v - target)
		sum += dev
		if dev > maxAbs {
			maxAbs = dev
		}
	}
	return sum / float64(len(r)), maxAbs
}
