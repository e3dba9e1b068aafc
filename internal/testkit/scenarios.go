// Package testkit generates the synthetic calibration scenarios used by the
// engine's tests and the demo driver: feature matrices with known
// conditional-coverage structure, so the validity test's accept/reject
// behavior can be checked against ground truth.
package testkit

import (
	"math/rand"

	montestats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"covcheck/ports"
)

// ScenarioData is a synthetic calibration sample plus the upstream predictor
// that produced its intervals.
type ScenarioData struct {
	X         [][]float64
	Y         []float64
	Predictor ports.MatrixPredictor
}

// GaussianBandPredictor returns the symmetric standard-normal band whose true
// coverage at x equals CoverageAt(x). With Y drawn standard normal, the
// indicator for row i is Bernoulli(CoverageAt(x_i)) by construction.
type GaussianBandPredictor struct {
	CoverageAt func(x []float64) float64
}

// Predict implements ports.MatrixPredictor.
func (p *GaussianBandPredictor) Predict(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		c := p.CoverageAt(row)
		q := distuv.UnitNormal.Quantile((1 + c) / 2)
		out[i] = []float64{-q, q}
	}
	return out, nil
}

// UniformFeatures draws an n×d matrix uniform on (-1, 1).
func UniformFeatures(n, d int, rng *rand.Rand) [][]float64 {
	x := make([][]float64, n)
	for i := range x {
		row := make([]float64, d)
		for j := range row {
			row[j] = 2*rng.Float64() - 1
		}
		x[i] = row
	}
	return x
}

// StandardNormalTargets draws n standard-normal targets.
func StandardNormalTargets(n int, rng *rand.Rand) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = rng.NormFloat64()
	}
	return y
}

// ScenarioConstantCoverage builds the valid case: true coverage equals target
// everywhere, independent of the features.
func ScenarioConstantCoverage(n, d int, target float64, seed int64) *ScenarioData {
	rng := rand.New(rand.NewSource(seed))
	return &ScenarioData{
		X:         UniformFeatures(n, d, rng),
		Y:         StandardNormalTargets(n, rng),
		Predictor: &GaussianBandPredictor{CoverageAt: func([]float64) float64 { return target }},
	}
}

// ScenarioSplitCoverage builds the invalid case: coverage is lowCoverage
// where the first feature is negative and highCoverage elsewhere, so the
// marginal average can match the nominal rate while conditional coverage
// does not.
func ScenarioSplitCoverage(n, d int, lowCoverage, highCoverage float64, seed int64) *ScenarioData {
	rng := rand.New(rand.NewSource(seed))
	return &ScenarioData{
		X: UniformFeatures(n, d, rng),
		Y: StandardNormalTargets(n, rng),
		Predictor: &GaussianBandPredictor{CoverageAt: func(x []float64) float64 {
			if x[0] < 0 {
				return lowCoverage
			}
			return highCoverage
		}},
	}
}

// MeanRegressor is a minimal custom coverage model: it predicts the training
// indicator mean everywhere, returning raw real values rather than classifier
// probabilities. Used to exercise the custom-evaluator slot.
type MeanRegressor struct {
	mean float64
}

func (m *MeanRegressor) Fit(_ [][]float64, w []float64, _ *rand.Rand) error {
	mean, err := montestats.Mean(w)
	if err != nil {
		return err
	}
	m.mean = mean
	return nil
}

func (m *MeanRegressor) PredictProba(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = m.mean
	}
	return out, nil
}

func (m *MeanRegressor) Clone() ports.CoverageModel {
	return &MeanRegressor{}
}
