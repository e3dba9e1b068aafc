package validity

import (
	"math/rand"

	"covcheck/domain/coverage"
	apperrors "covcheck/internal/errors"
)

// MonteCarloTest builds the null distribution of the coverage discrepancy
// statistic by simulation: each repetition draws a synthetic indicator vector
// from the exact null of X-independent Bernoulli(1-alpha) coverage, refits a
// fresh evaluator of the same family on the training fold, and scores it on
// the unchanged held-out fold. The p-value is the fraction of simulated
// statistics strictly above the observed one (one-sided upper tail).
func (a *Analysis) MonteCarloTest(b int, seed int64, parallel bool) (*coverage.TestResult, error) {
	if b <= 0 {
		return nil, apperrors.Newf(apperrors.CodeValidationError,
			"repetition count must be positive, got %d", b)
	}
	tObs, _, err := a.ComputeDif()
	if err != nil {
		return nil, err
	}

	rep := func(_ int, rng *rand.Rand) (float64, error) {
		wStar := a.drawNullIndicator(rng)
		model := a.model.Clone()
		if err := model.Fit(a.xTrain, wStar, rng); err != nil {
			return 0, apperrors.Wrap(err, "null refit failed")
		}
		r, err := model.PredictProba(a.xHold)
		if err != nil {
			return 0, err
		}
		mean, _ := Discrepancy(r, a.opts.Alpha)
		return mean, nil
	}

	a.opts.Logger.Debug("analysis %s monte carlo: B=%d parallel=%v", a.id, b, parallel)
	var tB []float64
	if parallel {
		tB, err = runParallel(b, a.opts.Workers, seed, rep)
	} else {
		tB, err = runSequential(b, seed, rep)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "monte carlo simulation failed")
	}

	exceed := 0
	for _, t := range tB {
		if t > tObs {
			exceed++
		}
	}
	return &coverage.TestResult{
		PValue:    float64(exceed) / float64(b),
		Statistic: tObs,
	}, nil
}

// drawNullIndicator samples an independent Bernoulli(1-alpha) indicator per
// training row.
func (a *Analysis) drawNullIndicator(rng *rand.Rand) []float64 {
	w := make([]float64, len(a.wTrain))
	p := 1 - a.opts.Alpha
	for i := range w {
		if rng.Float64() < p {
			w[i] = 1
		}
	}
	return w
}
