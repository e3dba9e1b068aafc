package evaluator

import (
	"math"
	"math/rand"

	apperrors "covcheck/internal/errors"
)

// SelectCCP chooses the cost-complexity pruning strength for a CART
// evaluator. It grows an unpruned probe tree on the training half, walks its
// pruning path in increasing order, refits a fresh tree per candidate, scores
// each by Brier loss on the validation half, and returns the first strength
// achieving the lowest loss.
func SelectCCP(cfg TreeConfig, xTrain, xValid [][]float64, wTrain, wValid []float64, rng *rand.Rand) (float64, error) {
	if len(xValid) != len(wValid) {
		return 0, apperrors.Newf(apperrors.CodeShapeMismatch,
			"validation set has %d feature rows but %d labels", len(xValid), len(wValid))
	}

	probeCfg := cfg
	probeCfg.CCPAlpha = 0
	probe := NewTree(probeCfg)
	if err := probe.Fit(xTrain, wTrain, rng); err != nil {
		return 0, apperrors.Wrap(err, "pruning probe fit failed")
	}

	path := probe.PruningPath()
	if len(path) == 0 {
		return 0, apperrors.New(apperrors.CodeNoPruningCandidate,
			"cost-complexity pruning path yielded no candidate strengths")
	}

	bestLoss := math.Inf(1)
	bestAlpha := 0.0
	for _, alpha := range path {
		candCfg := cfg
		candCfg.CCPAlpha = alpha
		cand := NewTree(candCfg)
		if err := cand.Fit(xTrain, wTrain, rng); err != nil {
			return 0, apperrors.Wrapf(err, "candidate fit failed at strength %g", alpha)
		}
		preds, err := cand.PredictClass(xValid)
		if err != nil {
			return 0, err
		}
		// First-seen wins ties: strict inequality only.
		if loss := BrierScore(wValid, preds); loss < bestLoss {
			bestLoss = loss
			bestAlpha = alpha
		}
	}
	return bestAlpha, nil
}

// BrierScore is the mean squared error between predictions and binary
// outcomes.
func BrierScore(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	sum := 0.0
	for i := range truth {
		diff := pred[i] - truth[i]
		sum += diff * diff
	}
	return sum / float64(len(truth))
}
