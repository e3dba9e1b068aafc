package evaluator

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	apperrors "covcheck/internal/errors"
	"covcheck/ports"
)

// GAMConfig holds the logistic additive model hyperparameters.
type GAMConfig struct {
	Knots      int       // interior knots per feature; 0 means 8
	LambdaGrid []float64 // smoothing candidates; nil means an 11-point log grid
	MaxIter    int       // IRLS iteration cap; 0 means 25
	Tol        float64   // IRLS convergence tolerance; 0 means 1e-6
}

func (c GAMConfig) withDefaults() GAMConfig {
	if c.Knots <= 0 {
		c.Knots = 8
	}
	if len(c.LambdaGrid) == 0 {
		c.LambdaGrid = defaultLambdaGrid()
	}
	if c.MaxIter <= 0 {
		c.MaxIter = 25
	}
	if c.Tol <= 0 {
		c.Tol = 1e-6
	}
	return c
}

// defaultLambdaGrid spans 1e-3..1e3 in 11 log-spaced points, mirroring the
// default smoothing grid of logistic-GAM grid search.
func defaultLambdaGrid() []float64 {
	grid := make([]float64, 11)
	for i := range grid {
		grid[i] = math.Pow(10, -3+0.6*float64(i))
	}
	return grid
}

// GAM is a logistic generalized-additive model: per-feature linear spline
// smooths fitted by penalized IRLS, with the smoothing strength chosen by an
// internal grid search over the training fold before the final fit.
type GAM struct {
	cfg    GAMConfig
	knots  [][]float64
	beta   []float64
	lambda float64
	dim    int
}

// NewGAM creates an untrained model.
func NewGAM(cfg GAMConfig) *GAM {
	return &GAM{cfg: cfg.withDefaults()}
}

// Clone returns a fresh untrained model with identical hyperparameters. The
// smoothing grid search reruns on every refit, as the simulation protocol
// requires.
func (g *GAM) Clone() ports.CoverageModel {
	return &GAM{cfg: g.cfg}
}

// Fit runs the smoothing grid search on an internal 80/20 split of the
// training fold, then refits on the full fold with the selected strength.
func (g *GAM) Fit(x [][]float64, w []float64, rng *rand.Rand) error {
	if err := checkTrainingShape(x, w); err != nil {
		return err
	}
	g.dim = len(x[0])
	g.knots = placeKnots(x, g.cfg.Knots)
	design := g.designMatrix(x)

	lambda, err := g.searchLambda(design, w, rng)
	if err != nil {
		return err
	}
	g.lambda = lambda

	beta, err := irls(design, w, g.penaltyMask(), lambda, g.cfg.MaxIter, g.cfg.Tol)
	if err != nil {
		return apperrors.Wrap(err, "final GAM fit failed")
	}
	g.beta = beta
	return nil
}

// PredictProba returns sigmoid(design·beta) per row.
func (g *GAM) PredictProba(x [][]float64) ([]float64, error) {
	if g.beta == nil {
		return nil, apperrors.New(apperrors.CodeNotFitted, "GAM is not fitted")
	}
	design := g.designMatrix(x)
	n, m := design.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		eta := 0.0
		for j := 0; j < m; j++ {
			eta += design.At(i, j) * g.beta[j]
		}
		out[i] = sigmoid(eta)
	}
	return out, nil
}

// searchLambda scores each smoothing candidate by Brier loss on a held-in
// validation slice and keeps the best, first-seen winning ties.
func (g *GAM) searchLambda(design *mat.Dense, w []float64, rng *rand.Rand) (float64, error) {
	n, _ := design.Dims()
	if n < 10 {
		return g.cfg.LambdaGrid[0], nil
	}

	perm := permutation(n, rng)
	nVal := n / 5
	if nVal < 1 {
		nVal = 1
	}
	valIdx, fitIdx := perm[:nVal], perm[nVal:]

	fitDesign, fitW := subsetDesign(design, w, fitIdx)
	valDesign, valW := subsetDesign(design, w, valIdx)

	mask := g.penaltyMask()
	bestLoss := math.Inf(1)
	bestLambda := g.cfg.LambdaGrid[0]
	for _, lambda := range g.cfg.LambdaGrid {
		beta, err := irls(fitDesign, fitW, mask, lambda, g.cfg.MaxIter, g.cfg.Tol)
		if err != nil {
			continue
		}
		preds := predictDesign(valDesign, beta)
		if loss := BrierScore(valW, preds); loss < bestLoss {
			bestLoss = loss
			bestLambda = lambda
		}
	}
	return bestLambda, nil
}

// designMatrix expands each feature into a linear spline basis: the feature
// itself plus hinge terms at the interior knots, with a shared intercept.
func (g *GAM) designMatrix(x [][]float64) *mat.Dense {
	perFeature := 1 + g.cfg.Knots
	m := 1 + g.dim*perFeature
	design := mat.NewDense(len(x), m, nil)
	for i, row := range x {
		design.Set(i, 0, 1)
		col := 1
		for j := 0; j < g.dim; j++ {
			v := row[j]
			design.Set(i, col, v)
			col++
			for _, k := range g.knots[j] {
				design.Set(i, col, hinge(v-k))
				col++
			}
		}
	}
	return design
}

// penaltyMask marks the coefficients subject to the ridge smoothing penalty:
// hinge terms only, never the intercept or the linear terms.
func (g *GAM) penaltyMask() []bool {
	perFeature := 1 + g.cfg.Knots
	mask := make([]bool, 1+g.dim*perFeature)
	col := 1
	for j := 0; j < g.dim; j++ {
		col++ // linear term unpenalized
		for k := 0; k < g.cfg.Knots; k++ {
			mask[col] = true
			col++
		}
	}
	return mask
}

// placeKnots puts interior knots at evenly spaced quantiles per feature.
func placeKnots(x [][]float64, count int) [][]float64 {
	d := len(x[0])
	knots := make([][]float64, d)
	column := make([]float64, len(x))
	for j := 0; j < d; j++ {
		for i, row := range x {
			column[i] = row[j]
		}
		sort.Float64s(column)
		ks := make([]float64, count)
		for k := 0; k < count; k++ {
			q := float64(k+1) / float64(count+1)
			ks[k] = column[int(q*float64(len(column)-1))]
		}
		knots[j] = ks
	}
	return knots
}

// irls solves the penalized logistic fit (D'WD + lambda*P) beta = D'Wz by
// iteratively reweighted least squares.
func irls(design *mat.Dense, w []float64, penalized []bool, lambda float64, maxIter int, tol float64) ([]float64, error) {
	n, m := design.Dims()
	beta := make([]float64, m)
	weights := make([]float64, n)
	z := make([]float64, n)

	for iter := 0; iter < maxIter; iter++ {
		for i := 0; i < n; i++ {
			e := 0.0
			for j := 0; j < m; j++ {
				e += design.At(i, j) * beta[j]
			}
			mu := sigmoid(e)
			wt := mu * (1 - mu)
			if wt < 1e-6 {
				wt = 1e-6
			}
			weights[i] = wt
			z[i] = e + (w[i]-sigmoid(e))/wt
		}

		// Normal equations with the ridge penalty on masked coefficients.
		a := mat.NewSymDense(m, nil)
		b := make([]float64, m)
		for j := 0; j < m; j++ {
			for k := j; k < m; k++ {
				sum := 0.0
				for i := 0; i < n; i++ {
					sum += design.At(i, j) * weights[i] * design.At(i, k)
				}
				if j == k && penalized[j] {
					sum += lambda
				}
				a.SetSym(j, k, sum)
			}
			bj := 0.0
			for i := 0; i < n; i++ {
				bj += design.At(i, j) * weights[i] * z[i]
			}
			b[j] = bj
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(a); !ok {
			return nil, apperrors.New(apperrors.CodeInternalError,
				"IRLS normal equations are not positive definite")
		}
		next := mat.NewVecDense(m, nil)
		if err := chol.SolveVecTo(next, mat.NewVecDense(m, b)); err != nil {
			return nil, apperrors.Wrap(err, "IRLS solve failed")
		}

		delta := 0.0
		for j := 0; j < m; j++ {
			d := math.Abs(next.AtVec(j) - beta[j])
			if d > delta {
				delta = d
			}
			beta[j] = next.AtVec(j)
		}
		if delta < tol {
			break
		}
	}
	return beta, nil
}

func predictDesign(design *mat.Dense, beta []float64) []float64 {
	n, m := design.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		eta := 0.0
		for j := 0; j < m; j++ {
			eta += design.At(i, j) * beta[j]
		}
		out[i] = sigmoid(eta)
	}
	return out
}

func subsetDesign(design *mat.Dense, w []float64, idx []int) (*mat.Dense, []float64) {
	_, m := design.Dims()
	sub := mat.NewDense(len(idx), m, nil)
	subW := make([]float64, len(idx))
	for r, i := range idx {
		for j := 0; j < m; j++ {
			sub.Set(r, j, design.At(i, j))
		}
		subW[r] = w[i]
	}
	return sub, subW
}

func permutation(n int, rng *rand.Rand) []int {
	if rng != nil {
		return rng.Perm(n)
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func hinge(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}
