package interval

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	apperrors "covcheck/internal/errors"
)

// QuantileRange is a small interval predictor used by the demo driver and
// tests: a least-squares linear fit for the center plus empirical residual
// quantiles for the band. It satisfies ports.MatrixPredictor, standing in for
// production quantile-regression methods that already return an n×2 matrix.
type QuantileRange struct {
	coverage float64 // miscoverage; band spans [coverage/2, 1-coverage/2]
	beta     []float64
	lo, hi   float64
	fitted   bool
}

// NewQuantileRange creates an unfitted predictor targeting 1-coverage
// marginal coverage.
func NewQuantileRange(coverage float64) *QuantileRange {
	return &QuantileRange{coverage: coverage}
}

// Fit estimates the linear center and residual quantile offsets.
func (q *QuantileRange) Fit(x [][]float64, y []float64) error {
	if len(x) != len(y) || len(x) == 0 {
		return apperrors.Newf(apperrors.CodeShapeMismatch,
			"quantile range fit: %d feature rows vs %d targets", len(x), len(y))
	}
	n, d := len(x), len(x[0])

	design := mat.NewDense(n, d+1, nil)
	for i, row := range x {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}
	target := mat.NewVecDense(n, append([]float64(nil), y...))

	var beta mat.VecDense
	if err := beta.SolveVec(design, target); err != nil {
		return apperrors.Wrap(err, "least-squares solve failed")
	}
	q.beta = make([]float64, d+1)
	copy(q.beta, beta.RawVector().Data)

	resid := make([]float64, n)
	for i, row := range x {
		resid[i] = y[i] - q.center(row)
	}
	sort.Float64s(resid)
	q.lo = stat.Quantile(q.coverage/2, stat.LinInterp, resid, nil)
	q.hi = stat.Quantile(1-q.coverage/2, stat.LinInterp, resid, nil)
	q.fitted = true
	return nil
}

// Predict returns one (lower, upper) row per input row.
func (q *QuantileRange) Predict(x [][]float64) ([][]float64, error) {
	if !q.fitted {
		return nil, apperrors.New(apperrors.CodeNotFitted, "quantile range predictor is not fitted")
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		c := q.center(row)
		out[i] = []float64{c + q.lo, c + q.hi}
	}
	return out, nil
}

func (q *QuantileRange) center(row []float64) float64 {
	c := q.beta[0]
	for j, v := range row {
		c += q.beta[j+1] * v
	}
	return c
}
