package ports

import (
	"covcheck/domain/coverage"
)

// IntervalPredictor is the normalized boundary contract: every upstream
// interval-producing API is adapted to this single shape.
type IntervalPredictor interface {
	// Intervals returns one (lower, upper) pair per row of X.
	Intervals(x [][]float64) (*coverage.Intervals, error)
}

// SignificancePredictor is the upstream convention used by nonconformist-style
// methods: the miscoverage level is a call parameter.
type SignificancePredictor interface {
	PredictWithSignificance(x [][]float64, significance float64) ([][]float64, error)
}

// QuantilePairPredictor is the upstream convention used by quantile-forest
// style methods: two parallel bound arrays selected by a method name.
type QuantilePairPredictor interface {
	PredictPI(x [][]float64, method string) (lower, upper []float64, err error)
}

// MatrixPredictor is the upstream convention for methods that already return
// an n×2 interval matrix.
type MatrixPredictor interface {
	Predict(x [][]float64) ([][]float64, error)
}
