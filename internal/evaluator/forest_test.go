package evaluator

import (
	"math/rand"
	"testing"
)

func TestForest_LearnsSignSplit(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	x, w := signData(500, rng)

	forest := NewForest(ForestConfig{Trees: 25, MinLeaf: 20})
	if err := forest.Fit(x, w, rng); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	probs, err := forest.PredictProba([][]float64{{-0.6}, {0.6}})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if probs[0] > 0.2 {
		t.Errorf("negative side should have low probability, got %f", probs[0])
	}
	if probs[1] < 0.8 {
		t.Errorf("positive side should have high probability, got %f", probs[1])
	}
}

func TestForest_ProbabilitiesInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(43))
	n := 300
	x := make([][]float64, n)
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = []float64{2*rng.Float64() - 1, 2*rng.Float64() - 1}
		if rng.Float64() < 0.9 {
			w[i] = 1
		}
	}

	forest := NewForest(ForestConfig{Trees: 10, MinLeaf: 30})
	if err := forest.Fit(x, w, rng); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	probs, err := forest.PredictProba(x)
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	for i, p := range probs {
		if p < 0 || p > 1 {
			t.Fatalf("probability out of range at %d: %f", i, p)
		}
	}
}

func TestForest_CloneIsUntrained(t *testing.T) {
	rng := rand.New(rand.NewSource(47))
	x, w := signData(300, rng)

	forest := NewForest(ForestConfig{Trees: 5, MinLeaf: 20})
	if err := forest.Fit(x, w, rng); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	clone := forest.Clone()
	if _, err := clone.PredictProba(x[:1]); err == nil {
		t.Error("clone should be untrained until fitted")
	}
	if err := clone.Fit(x, w, rng); err != nil {
		t.Fatalf("clone fit failed: %v", err)
	}
}
