package testkit

import (
	"math"
	"testing"
)

// empiricalCoverage recomputes the indicator mean directly from the
// scenario's band.
func empiricalCoverage(t *testing.T, data *ScenarioData, keep func(x []float64) bool) float64 {
	t.Helper()
	preds, err := data.Predictor.Predict(data.X)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	count, hits := 0, 0
	for i, row := range data.X {
		if !keep(row) {
			continue
		}
		count++
		if data.Y[i] >= preds[i][0] && data.Y[i] <= preds[i][1] {
			hits++
		}
	}
	if count == 0 {
		t.Fatal("no rows selected")
	}
	return float64(hits) / float64(count)
}

func TestScenarioConstantCoverage_HitsTarget(t *testing.T) {
	data := ScenarioConstantCoverage(20000, 2, 0.9, 71)
	cov := empiricalCoverage(t, data, func([]float64) bool { return true })
	if math.Abs(cov-0.9) > 0.02 {
		t.Errorf("empirical coverage = %f, want about 0.9", cov)
	}
}

func TestScenarioSplitCoverage_Regimes(t *testing.T) {
	data := ScenarioSplitCoverage(20000, 2, 0.99, 0.50, 73)

	low := empiricalCoverage(t, data, func(x []float64) bool { return x[0] < 0 })
	high := empiricalCoverage(t, data, func(x []float64) bool { return x[0] >= 0 })

	if math.Abs(low-0.99) > 0.02 {
		t.Errorf("negative regime coverage = %f, want about 0.99", low)
	}
	if math.Abs(high-0.50) > 0.03 {
		t.Errorf("non-negative regime coverage = %f, want about 0.50", high)
	}
}

func TestUniformFeatures_Range(t *testing.T) {
	data := ScenarioConstantCoverage(500, 3, 0.9, 79)
	for _, row := range data.X {
		if len(row) != 3 {
			t.Fatalf("row width = %d, want 3", len(row))
		}
		for _, v := range row {
			if v <= -1 || v >= 1 {
				t.Fatalf("feature %f outside (-1, 1)", v)
			}
		}
	}
}
