package ports

import (
	"math/rand"
)

// CoverageModel is the uniform fit/predict contract every coverage-evaluator
// family satisfies. Implementations must thread all randomness through the
// supplied RNG; no package-level random state.
type CoverageModel interface {
	// Fit trains the model to regress the binary coverage indicator w on X.
	// Degenerate indicators (all zero or all one) are valid training sets,
	// not errors: null simulation routinely produces them.
	Fit(x [][]float64, w []float64, rng *rand.Rand) error

	// PredictProba returns the estimated local coverage probability per row.
	// Classifier families return values in [0,1]; custom regressors may
	// return raw real-valued predictions, used as-is.
	PredictProba(x [][]float64) ([]float64, error)

	// Clone returns a fresh untrained model with identical family and
	// hyperparameters (including any selected pruning strength). Simulated
	// refits always go through a clone so the observed fit is never mutated.
	Clone() CoverageModel
}
