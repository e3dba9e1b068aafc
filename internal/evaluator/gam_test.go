package evaluator

import (
	"math/rand"
	"testing"

	"covcheck/domain/coverage"
	apperrors "covcheck/internal/errors"
	"covcheck/internal/testkit"
)

func TestGAM_LearnsMonotoneCoverage(t *testing.T) {
	rng := rand.New(rand.NewSource(53))
	n := 600
	x := make([][]float64, n)
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		v := 2*rng.Float64() - 1
		x[i] = []float64{v}
		// Coverage rises with the feature: 0.4 at the left edge, 0.95 at the right.
		if rng.Float64() < 0.675+0.275*v {
			w[i] = 1
		}
	}

	gam := NewGAM(GAMConfig{})
	if err := gam.Fit(x, w, rng); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	probs, err := gam.PredictProba([][]float64{{-0.8}, {0.8}})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	for _, p := range probs {
		if p < 0 || p > 1 {
			t.Fatalf("probability out of range: %f", p)
		}
	}
	if probs[0] >= probs[1] {
		t.Errorf("coverage estimate should rise with the feature: %f vs %f", probs[0], probs[1])
	}
	if probs[1]-probs[0] < 0.2 {
		t.Errorf("expected a clear gradient across the feature range, got %f vs %f", probs[0], probs[1])
	}
}

func TestGAM_DegenerateSingleClass(t *testing.T) {
	rng := rand.New(rand.NewSource(59))
	n := 200
	x := make([][]float64, n)
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = []float64{rng.Float64()}
		w[i] = 1
	}

	gam := NewGAM(GAMConfig{})
	if err := gam.Fit(x, w, rng); err != nil {
		t.Fatalf("an all-one indicator is a valid training set: %v", err)
	}
	probs, err := gam.PredictProba(x[:10])
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	for _, p := range probs {
		if p < 0.9 {
			t.Errorf("expected saturated probabilities for a one-class fit, got %f", p)
		}
	}
}

func TestNew_FamilyDispatch(t *testing.T) {
	if _, err := New(coverage.FamilyCART, Config{}, nil); err != nil {
		t.Errorf("CART should resolve: %v", err)
	}
	if _, err := New(coverage.FamilyRandomForest, Config{}, nil); err != nil {
		t.Errorf("RF should resolve: %v", err)
	}
	if _, err := New(coverage.FamilyGAM, Config{}, nil); err != nil {
		t.Errorf("GAM should resolve: %v", err)
	}

	custom := &testkit.MeanRegressor{}
	model, err := New(coverage.FamilyCustom, Config{}, custom)
	if err != nil {
		t.Fatalf("custom should resolve when a model is supplied: %v", err)
	}
	if model != custom {
		t.Error("custom family should return the supplied model")
	}

	_, err = New(coverage.FamilyCustom, Config{}, nil)
	if !apperrors.HasCode(err, apperrors.CodeUnsupportedEvaluator) {
		t.Errorf("expected UNSUPPORTED_EVALUATOR for missing custom model, got %v", err)
	}
	_, err = New(coverage.Family("boosted"), Config{}, nil)
	if !apperrors.HasCode(err, apperrors.CodeUnsupportedEvaluator) {
		t.Errorf("expected UNSUPPORTED_EVALUATOR for unknown family, got %v", err)
	}
}
