package validity

import (
	"math/rand"
	"sort"

	montestats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"covcheck/domain/coverage"
	apperrors "covcheck/internal/errors"
)

// BootstrapCI builds the sampling distribution of the coverage discrepancy
// statistic by resampling the training fold with replacement, refitting a
// fresh evaluator per repetition, and scoring on the unchanged held-out fold.
// It returns a normal-approximation interval around the observed statistic
// and a percentile interval, both at level 1-significance.
//
// Each resample draws b indices, the repetition count, rather than the
// training fold's own size.
func (a *Analysis) BootstrapCI(b int, significance float64, seed int64, parallel bool) (*coverage.BootstrapResult, error) {
	if b <= 1 {
		return nil, apperrors.Newf(apperrors.CodeValidationError,
			"repetition count must exceed 1, got %d", b)
	}
	if significance <= 0 || significance >= 1 {
		return nil, apperrors.Newf(apperrors.CodeValidationError,
			"significance must lie in (0,1), got %g", significance)
	}
	tObs, _, err := a.ComputeDif()
	if err != nil {
		return nil, err
	}

	nTrain := len(a.wTrain)
	rep := func(_ int, rng *rand.Rand) (float64, error) {
		xBoot := make([][]float64, b)
		wBoot := make([]float64, b)
		for j := 0; j < b; j++ {
			i := rng.Intn(nTrain)
			xBoot[j] = a.xTrain[i]
			wBoot[j] = a.wTrain[i]
		}
		model := a.model.Clone()
		if err := model.Fit(xBoot, wBoot, rng); err != nil {
			return 0, apperrors.Wrap(err, "bootstrap refit failed")
		}
		r, err := model.PredictProba(a.xHold)
		if err != nil {
			return 0, err
		}
		mean, _ := Discrepancy(r, a.opts.Alpha)
		return mean, nil
	}

	a.opts.Logger.Debug("analysis %s bootstrap: B=%d significance=%g parallel=%v",
		a.id, b, significance, parallel)
	var tVec []float64
	if parallel {
		tVec, err = runParallel(b, a.opts.Workers, seed, rep)
	} else {
		tVec, err = runSequential(b, seed, rep)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "bootstrap simulation failed")
	}

	epb, err := montestats.StandardDeviationSample(tVec)
	if err != nil {
		return nil, apperrors.Wrap(err, "bootstrap standard error failed")
	}
	z := distuv.UnitNormal.Quantile(1 - significance/2)

	sorted := append([]float64(nil), tVec...)
	sort.Float64s(sorted)
	lo := stat.Quantile(significance/2, stat.LinInterp, sorted, nil)
	hi := stat.Quantile(1-significance/2, stat.LinInterp, sorted, nil)

	return &coverage.BootstrapResult{
		Statistic: tObs,
		SEInterval: coverage.Interval{
			Lower: tObs - z*epb,
			Upper: tObs + z*epb,
		},
		PercentileInterval: coverage.Interval{
			Lower: lo,
			Upper: hi,
		},
	}, nil
}
