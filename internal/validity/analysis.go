package validity

import (
	"math"
	"math/rand"

	"covcheck/domain/core"
	"covcheck/domain/coverage"
	apperrors "covcheck/internal/errors"
	"covcheck/internal/evaluator"
	"covcheck/internal/logging"
	"covcheck/ports"
)

// Default fit seeds and held-out fraction.
const (
	DefaultFitSeed         = 1250
	DefaultPruneSeed       = 650
	DefaultHoldoutFraction = 0.2
)

// Options configures an analysis. Alpha and the evaluator family are fixed
// for the analysis lifetime.
type Options struct {
	Alpha      float64
	Family     coverage.Family
	Prune      bool // CART only
	SplitTrain bool // false: the held-out fold aliases the training fold
	Custom     ports.CoverageModel
	Evaluator  evaluator.Config
	Workers    int // parallel pool size; 0 means cores-1
	Logger     *logging.Logger
}

// FitConfig carries the per-fit seeds and split fraction. Zero values fall
// back to the package defaults.
type FitConfig struct {
	Seed            int64
	PruneSeed       int64
	HoldoutFraction float64
}

func (c FitConfig) withDefaults() FitConfig {
	if c.Seed == 0 {
		c.Seed = DefaultFitSeed
	}
	if c.PruneSeed == 0 {
		c.PruneSeed = DefaultPruneSeed
	}
	if c.HoldoutFraction <= 0 || c.HoldoutFraction >= 1 {
		c.HoldoutFraction = DefaultHoldoutFraction
	}
	return c
}

// Analysis tests H0: P(Y in R(X) | X) = 1-alpha for one fitted interval
// predictor. The fitted evaluator is replaced wholesale on every Fit, never
// mutated in place.
type Analysis struct {
	id        core.AnalysisID
	predictor ports.IntervalPredictor
	opts      Options

	xTrain [][]float64
	wTrain []float64
	xHold  [][]float64
	wHold  []float64
	model  ports.CoverageModel
	fitted bool
}

// New validates the options and creates an unfitted analysis.
func New(predictor ports.IntervalPredictor, opts Options) (*Analysis, error) {
	if predictor == nil {
		return nil, apperrors.New(apperrors.CodeValidationError, "interval predictor is required")
	}
	if opts.Alpha <= 0 || opts.Alpha >= 1 {
		return nil, apperrors.Newf(apperrors.CodeValidationError,
			"alpha must lie in (0,1), got %g", opts.Alpha)
	}
	// Resolve the family tag once, up front; an unknown tag fails here.
	if _, err := evaluator.New(opts.Family, opts.Evaluator, opts.Custom); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewDefaultLogger()
	}
	return &Analysis{
		id:        core.AnalysisID(core.NewID()),
		predictor: predictor,
		opts:      opts,
	}, nil
}

// ID returns the analysis identifier.
func (a *Analysis) ID() core.AnalysisID { return a.id }

// Alpha returns the nominal miscoverage rate.
func (a *Analysis) Alpha() float64 { return a.opts.Alpha }

// Fit predicts intervals over the calibration sample, derives the coverage
// indicator, splits into training and held-out folds, and fits the coverage
// evaluator on the training fold.
func (a *Analysis) Fit(x [][]float64, y []float64, cfg FitConfig) error {
	cfg = cfg.withDefaults()

	sample, err := coverage.NewSample(x, y)
	if err != nil {
		return err
	}

	intervals, err := a.predictor.Intervals(sample.X())
	if err != nil {
		return apperrors.Wrap(err, "interval prediction failed")
	}
	w, err := Label(sample.Y(), intervals)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	xTrain, wTrain, xHold, wHold := splitFolds(sample.X(), w, cfg.HoldoutFraction, a.opts.SplitTrain, rng)

	model, err := a.fitEvaluator(xTrain, wTrain, cfg, rng)
	if err != nil {
		return err
	}

	a.xTrain, a.wTrain = xTrain, wTrain
	a.xHold, a.wHold = xHold, wHold
	a.model = model
	a.fitted = true
	a.opts.Logger.Debug("analysis %s fitted: family=%s n_train=%d n_holdout=%d",
		a.id, a.opts.Family, len(wTrain), len(wHold))
	return nil
}

func (a *Analysis) fitEvaluator(xTrain [][]float64, wTrain []float64, cfg FitConfig, rng *rand.Rand) (ports.CoverageModel, error) {
	evalCfg := a.opts.Evaluator

	if a.opts.Family == coverage.FamilyCART && a.opts.Prune {
		pruneRng := rand.New(rand.NewSource(cfg.PruneSeed))
		xHalf, wHalf, xOther, wOther := splitFolds(xTrain, wTrain, 0.5, true, pruneRng)
		ccp, err := evaluator.SelectCCP(evalCfg.Tree, xHalf, xOther, wHalf, wOther, pruneRng)
		if err != nil {
			return nil, err
		}
		evalCfg.Tree.CCPAlpha = ccp
		a.opts.Evaluator = evalCfg
		a.opts.Logger.Debug("analysis %s selected pruning strength %g", a.id, ccp)
	}

	model, err := evaluator.New(a.opts.Family, evalCfg, a.opts.Custom)
	if err != nil {
		return nil, err
	}
	if err := model.Fit(xTrain, wTrain, rng); err != nil {
		return nil, apperrors.Wrap(err, "coverage evaluator fit failed")
	}
	return model, nil
}

// Predict returns the fitted evaluator's coverage probabilities for X.
func (a *Analysis) Predict(x [][]float64) ([]float64, error) {
	if !a.fitted {
		return nil, apperrors.New(apperrors.CodeNotFitted, "analysis is not fitted")
	}
	return a.model.PredictProba(x)
}

// RProb is Predict under its grid-evaluation name: local coverage estimates
// for each row of a feature grid.
func (a *Analysis) RProb(grid [][]float64) ([]float64, error) {
	return a.Predict(grid)
}

// ComputeDif returns the observed mean and max absolute deviation of the
// estimated local coverage from 1-alpha over the held-out fold. Idempotent
// between refits.
func (a *Analysis) ComputeDif() (meanAbs, maxAbs float64, err error) {
	if !a.fitted {
		return 0, 0, apperrors.New(apperrors.CodeNotFitted, "analysis is not fitted")
	}
	r, err := a.model.PredictProba(a.xHold)
	if err != nil {
		return 0, 0, err
	}
	meanAbs, maxAbs = Discrepancy(r, a.opts.Alpha)
	return meanAbs, maxAbs, nil
}

// splitFolds shuffles rows and carves off a held-out fraction. When split is
// false both folds alias the full data.
func splitFolds(x [][]float64, w []float64, fraction float64, split bool, rng *rand.Rand) (xTrain [][]float64, wTrain []float64, xHold [][]float64, wHold []float64) {
	if !split {
		return x, w, x, w
	}
	n := len(w)
	nHold := int(math.Round(fraction * float64(n)))
	if nHold < 1 {
		nHold = 1
	}
	if nHold >= n {
		nHold = n - 1
	}
	perm := rng.Perm(n)
	xHold = make([][]float64, 0, nHold)
	wHold = make([]float64, 0, nHold)
	xTrain = make([][]float64, 0, n-nHold)
	wTrain = make([]float64, 0, n-nHold)
	for k, i := range perm {
		if k < nHold {
			xHold = append(xHold, x[i])
			wHold = append(wHold, w[i])
		} else {
			xTrain = append(xTrain, x[i])
			wTrain = append(wTrain, w[i])
		}
	}
	return xTrain, wTrain, xHold, wHold
}
