package evaluator

import (
	"math"
	"math/rand"

	apperrors "covcheck/internal/errors"
	"covcheck/ports"
)

// DefaultForestTrees is the ensemble size when none is configured.
const DefaultForestTrees = 100

// ForestConfig holds the random-forest hyperparameters, passed through to
// the ensemble unchanged. There is no pruning step for forests.
type ForestConfig struct {
	Trees       int // 0 means DefaultForestTrees
	MinLeaf     int // per-tree leaf floor; 0 means 1
	MaxFeatures int // features per split; 0 means round(sqrt(d))
}

func (c ForestConfig) withDefaults() ForestConfig {
	if c.Trees <= 0 {
		c.Trees = DefaultForestTrees
	}
	if c.MinLeaf <= 0 {
		c.MinLeaf = 1
	}
	return c
}

// Forest is a bagged ensemble of classification trees.
type Forest struct {
	cfg   ForestConfig
	trees []*Tree
}

// NewForest creates an untrained forest.
func NewForest(cfg ForestConfig) *Forest {
	return &Forest{cfg: cfg.withDefaults()}
}

// Clone returns a fresh untrained forest with identical hyperparameters.
func (f *Forest) Clone() ports.CoverageModel {
	return &Forest{cfg: f.cfg}
}

// Fit grows each tree on a bootstrap sample with a random feature subset per
// split.
func (f *Forest) Fit(x [][]float64, w []float64, rng *rand.Rand) error {
	if err := checkTrainingShape(x, w); err != nil {
		return err
	}
	n := len(w)
	maxFeatures := f.cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Round(math.Sqrt(float64(len(x[0])))))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	f.trees = make([]*Tree, f.cfg.Trees)
	bx := make([][]float64, n)
	bw := make([]float64, n)
	for t := 0; t < f.cfg.Trees; t++ {
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			bx[i] = x[j]
			bw[i] = w[j]
		}
		tree := NewTree(TreeConfig{MinLeaf: f.cfg.MinLeaf, MaxFeatures: maxFeatures})
		if err := tree.Fit(bx, bw, rng); err != nil {
			return apperrors.Wrapf(err, "forest member %d fit failed", t)
		}
		f.trees[t] = tree
	}
	return nil
}

// PredictProba averages the member trees' positive-class probabilities.
func (f *Forest) PredictProba(x [][]float64) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, apperrors.New(apperrors.CodeNotFitted, "forest is not fitted")
	}
	out := make([]float64, len(x))
	for _, tree := range f.trees {
		probs, err := tree.PredictProba(x)
		if err != nil {
			return nil, err
		}
		for i, p := range probs {
			out[i] += p
		}
	}
	for i := range out {
		out[i] /= float64(len(f.trees))
	}
	return out, nil
}
