// Package interval normalizes the three upstream interval-prediction calling
// conventions into the single ports.IntervalPredictor contract. The
// convention is chosen explicitly at construction; nothing here inspects the
// upstream type at runtime.
package interval

import (
	"covcheck/domain/coverage"
	apperrors "covcheck/internal/errors"
	"covcheck/ports"
)

// DefaultQuantileMethod is passed to PredictPI when no method is configured.
const DefaultQuantileMethod = "qrf"

// SignificanceAdapter wraps predictors whose interval width is parameterized
// by a significance level at call time.
type SignificanceAdapter struct {
	upstream     ports.SignificancePredictor
	significance float64
}

// NewSignificanceAdapter fixes the significance level for the life of the
// analysis.
func NewSignificanceAdapter(upstream ports.SignificancePredictor, significance float64) *SignificanceAdapter {
	return &SignificanceAdapter{upstream: upstream, significance: significance}
}

func (a *SignificanceAdapter) Intervals(x [][]float64) (*coverage.Intervals, error) {
	preds, err := a.upstream.PredictWithSignificance(x, a.significance)
	if err != nil {
		return nil, apperrors.Wrap(err, "significance predictor failed")
	}
	return coverage.NewIntervalsFromMatrix(preds)
}

// QuantilePairAdapter wraps quantile-forest style predictors that return two
// parallel bound arrays, stacking them into columns.
type QuantilePairAdapter struct {
	upstream ports.QuantilePairPredictor
	method   string
}

// NewQuantilePairAdapter fixes the quantile method name at construction. An
// empty method falls back to DefaultQuantileMethod.
func NewQuantilePairAdapter(upstream ports.QuantilePairPredictor, method string) *QuantilePairAdapter {
	if method == "" {
		method = DefaultQuantileMethod
	}
	return &QuantilePairAdapter{upstream: upstream, method: method}
}

func (a *QuantilePairAdapter) Intervals(x [][]float64) (*coverage.Intervals, error) {
	lower, upper, err := a.upstream.PredictPI(x, a.method)
	if err != nil {
		return nil, apperrors.Wrap(err, "quantile-pair predictor failed")
	}
	return coverage.NewIntervals(lower, upper)
}

// MatrixAdapter wraps predictors that already produce an n×2 interval matrix.
type MatrixAdapter struct {
	upstream ports.MatrixPredictor
}

// NewMatrixAdapter wraps an already-matrix-shaped predictor.
func NewMatrixAdapter(upstream ports.MatrixPredictor) *MatrixAdapter {
	return &MatrixAdapter{upstream: upstream}
}

func (a *MatrixAdapter) Intervals(x [][]float64) (*coverage.Intervals, error) {
	preds, err := a.upstream.Predict(x)
	if err != nil {
		return nil, apperrors.Wrap(err, "matrix predictor failed")
	}
	return coverage.NewIntervalsFromMatrix(preds)
}
