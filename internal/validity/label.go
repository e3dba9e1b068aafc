// Package validity implements the conditional-coverage testing engine: it
// labels coverage indicators, fits a coverage evaluator, and quantifies the
// discrepancy between estimated local coverage and the nominal target via a
// Monte Carlo permutation test and a bootstrap confidence interval.
package validity

import (
	"covcheck/domain/coverage"
	apperrors "covcheck/internal/errors"
)

// Label derives the binary coverage indicator: entry i is 1 iff y_i lies in
// [lower_i, upper_i], both bounds inclusive. Pure function; shape mismatches
// fail here, before any model fitting.
func Label(y []float64, intervals *coverage.Intervals) ([]float64, error) {
	if len(y) != intervals.Len() {
		return nil, apperrors.Newf(apperrors.CodeShapeMismatch,
			"target vector has %d entries but %d intervals were predicted", len(y), intervals.Len())
	}
	w := make([]float64, len(y))
	for i := range y {
		lower, upper := intervals.Bounds(i)
		if y[i] >= lower && y[i] <= upper {
			w[i] = 1
		}
	}
	return w, nil
}
