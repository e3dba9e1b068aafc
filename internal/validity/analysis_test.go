package validity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"covcheck/adapters/interval"
	"covcheck/domain/coverage"
	apperrors "covcheck/internal/errors"
	"covcheck/internal/testkit"
)

const testAlpha = 0.1

func newCARTAnalysis(t *testing.T, data *testkit.ScenarioData, prune bool) *Analysis {
	t.Helper()
	analysis, err := New(interval.NewMatrixAdapter(data.Predictor), Options{
		Alpha:      testAlpha,
		Family:     coverage.FamilyCART,
		Prune:      prune,
		SplitTrain: true,
	})
	require.NoError(t, err)
	require.NoError(t, analysis.Fit(data.X, data.Y, FitConfig{}))
	return analysis
}

func TestAnalysis_ValidScenarioAccepts(t *testing.T) {
	data := testkit.ScenarioConstantCoverage(2000, 2, 1-testAlpha, 101)
	analysis := newCARTAnalysis(t, data, false)

	meanDev, maxDev, err := analysis.ComputeDif()
	require.NoError(t, err)
	require.GreaterOrEqual(t, maxDev, meanDev)
	require.Less(t, meanDev, 0.1, "feature-independent coverage should sit near the nominal rate")

	result, err := analysis.MonteCarloTest(200, 1250, false)
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.PValue, 0.0)
	require.LessOrEqual(t, result.PValue, 1.0)
	require.Equal(t, meanDev, result.Statistic)
}

func TestAnalysis_InvalidScenarioRejects(t *testing.T) {
	valid := testkit.ScenarioConstantCoverage(2000, 2, 1-testAlpha, 101)
	invalid := testkit.ScenarioSplitCoverage(2000, 2, 0.99, 0.50, 101)

	validAnalysis := newCARTAnalysis(t, valid, false)
	invalidAnalysis := newCARTAnalysis(t, invalid, false)

	validDev, _, err := validAnalysis.ComputeDif()
	require.NoError(t, err)
	invalidDev, _, err := invalidAnalysis.ComputeDif()
	require.NoError(t, err)
	require.Greater(t, invalidDev, 0.1, "the 99%%/50%% regime should show a large discrepancy")
	require.Greater(t, invalidDev, validDev)

	result, err := invalidAnalysis.MonteCarloTest(200, 1250, false)
	require.NoError(t, err)
	require.LessOrEqual(t, result.PValue, 0.01, "strong conditional miscoverage should reject")
}

func TestAnalysis_ComputeDifIdempotent(t *testing.T) {
	data := testkit.ScenarioConstantCoverage(1200, 2, 1-testAlpha, 7)
	analysis := newCARTAnalysis(t, data, false)

	mean1, max1, err := analysis.ComputeDif()
	require.NoError(t, err)
	mean2, max2, err := analysis.ComputeDif()
	require.NoError(t, err)
	require.Equal(t, mean1, mean2)
	require.Equal(t, max1, max2)
}

func TestAnalysis_PrunedFit(t *testing.T) {
	data := testkit.ScenarioSplitCoverage(2400, 2, 0.99, 0.50, 17)
	analysis := newCARTAnalysis(t, data, true)

	meanDev, maxDev, err := analysis.ComputeDif()
	require.NoError(t, err)
	require.GreaterOrEqual(t, maxDev, meanDev)
	require.Greater(t, meanDev, 0.05, "pruning should not erase a strong conditional signal")
}

func TestAnalysis_ParallelMatchesOwnRerun(t *testing.T) {
	data := testkit.ScenarioConstantCoverage(1200, 2, 1-testAlpha, 29)
	analysis := newCARTAnalysis(t, data, false)

	first, err := analysis.MonteCarloTest(100, 1250, true)
	require.NoError(t, err)
	second, err := analysis.MonteCarloTest(100, 1250, true)
	require.NoError(t, err)
	require.Equal(t, first.PValue, second.PValue)
	require.Equal(t, first.Statistic, second.Statistic)
}

func TestAnalysis_CustomEvaluator(t *testing.T) {
	data := testkit.ScenarioConstantCoverage(1000, 2, 1-testAlpha, 31)
	analysis, err := New(interval.NewMatrixAdapter(data.Predictor), Options{
		Alpha:      testAlpha,
		Family:     coverage.FamilyCustom,
		Custom:     &testkit.MeanRegressor{},
		SplitTrain: true,
	})
	require.NoError(t, err)
	require.NoError(t, analysis.Fit(data.X, data.Y, FitConfig{}))

	meanDev, _, err := analysis.ComputeDif()
	require.NoError(t, err)
	require.Less(t, meanDev, 0.05)

	result, err := analysis.MonteCarloTest(200, 1250, false)
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.PValue, 0.0)
	require.LessOrEqual(t, result.PValue, 1.0)
}

// The null-calibration property: when the observed data follow the exact
// null, the p-value is approximately uniform, so its average over many
// independent analyses approaches one half.
func TestAnalysis_NullPValuesRoughlyUniform(t *testing.T) {
	if testing.Short() {
		t.Skip("many-analysis calibration check")
	}
	sum := 0.0
	const runs = 40
	for k := 0; k < runs; k++ {
		data := testkit.ScenarioConstantCoverage(500, 1, 1-testAlpha, int64(1000+k))
		analysis, err := New(interval.NewMatrixAdapter(data.Predictor), Options{
			Alpha:      testAlpha,
			Family:     coverage.FamilyCustom,
			Custom:     &testkit.MeanRegressor{},
			SplitTrain: true,
		})
		require.NoError(t, err)
		require.NoError(t, analysis.Fit(data.X, data.Y, FitConfig{}))
		result, err := analysis.MonteCarloTest(100, int64(2000+k), false)
		require.NoError(t, err)
		sum += result.PValue
	}
	avg := sum / runs
	require.Greater(t, avg, 0.25, "null p-values should not concentrate near zero")
	require.Less(t, avg, 0.75, "null p-values should not concentrate near one")
}

func TestAnalysis_NotFitted(t *testing.T) {
	data := testkit.ScenarioConstantCoverage(200, 1, 1-testAlpha, 3)
	analysis, err := New(interval.NewMatrixAdapter(data.Predictor), Options{
		Alpha:      testAlpha,
		Family:     coverage.FamilyCART,
		SplitTrain: true,
	})
	require.NoError(t, err)

	_, _, err = analysis.ComputeDif()
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotFitted))
	_, err = analysis.Predict(data.X)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotFitted))
}

func TestNew_Validation(t *testing.T) {
	data := testkit.ScenarioConstantCoverage(100, 1, 0.9, 3)
	adapter := interval.NewMatrixAdapter(data.Predictor)

	_, err := New(adapter, Options{Alpha: 0, Family: coverage.FamilyCART})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidationError))

	_, err = New(adapter, Options{Alpha: 1.2, Family: coverage.FamilyCART})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidationError))

	_, err = New(adapter, Options{Alpha: 0.1, Family: coverage.Family("mystery")})
	require.True(t, apperrors.HasCode(err, apperrors.CodeUnsupportedEvaluator))

	_, err = New(nil, Options{Alpha: 0.1, Family: coverage.FamilyCART})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidationError))
}
