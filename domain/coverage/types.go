package coverage

import (
	apperrors "covcheck/internal/errors"
)

// Family identifies a coverage-evaluator model family. It is fixed when an
// analysis is constructed and never changes between the observed fit and any
// simulated refit.
type Family string

const (
	FamilyCART         Family = "CART"
	FamilyRandomForest Family = "RF"
	FamilyGAM          Family = "GAM"
	FamilyCustom       Family = "custom"
)

// Sample is an immutable calibration sample: an n×d feature matrix paired
// with a length-n target vector.
type Sample struct {
	x [][]float64
	y []float64
}

// NewSample validates and wraps a calibration sample. The feature matrix must
// be rectangular and row-aligned with the target vector.
func NewSample(x [][]float64, y []float64) (*Sample, error) {
	if len(x) != len(y) {
		return nil, apperrors.Newf(apperrors.CodeShapeMismatch,
			"feature matrix has %d rows but target vector has %d entries", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, apperrors.New(apperrors.CodeShapeMismatch, "calibration sample is empty")
	}
	d := len(x[0])
	for i, row := range x {
		if len(row) != d {
			return nil, apperrors.Newf(apperrors.CodeShapeMismatch,
				"feature matrix is ragged: row %d has %d columns, expected %d", i, len(row), d)
		}
	}
	return &Sample{x: x, y: y}, nil
}

// Len returns the number of rows.
func (s *Sample) Len() int { return len(s.y) }

// Dim returns the number of feature columns.
func (s *Sample) Dim() int {
	if len(s.x) == 0 {
		return 0
	}
	return len(s.x[0])
}

// X returns the feature matrix. Callers must not mutate it.
func (s *Sample) X() [][]float64 { return s.x }

// Y returns the target vector. Callers must not mutate it.
func (s *Sample) Y() []float64 { return s.y }

// Intervals holds per-row (lower, upper) prediction bounds. lower <= upper is
// assumed from upstream, not enforced here.
type Intervals struct {
	lower []float64
	upper []float64
}

// NewIntervals builds an interval set from parallel bound slices.
func NewIntervals(lower, upper []float64) (*Intervals, error) {
	if len(lower) != len(upper) {
		return nil, apperrors.Newf(apperrors.CodeShapeMismatch,
			"lower bounds have %d entries but upper bounds have %d", len(lower), len(upper))
	}
	return &Intervals{lower: lower, upper: upper}, nil
}

// NewIntervalsFromMatrix builds an interval set from an n×2 matrix.
func NewIntervalsFromMatrix(m [][]float64) (*Intervals, error) {
	lower := make([]float64, len(m))
	upper := make([]float64, len(m))
	for i, row := range m {
		if len(row) != 2 {
			return nil, apperrors.Newf(apperrors.CodeShapeMismatch,
				"interval matrix row %d has %d columns, expected 2", i, len(row))
		}
		lower[i] = row[0]
		upper[i] = row[1]
	}
	return &Intervals{lower: lower, upper: upper}, nil
}

// Len returns the number of intervals.
func (iv *Intervals) Len() int { return len(iv.lower) }

// Bounds returns the (lower, upper) pair for row i.
func (iv *Intervals) Bounds(i int) (float64, float64) {
	return iv.lower[i], iv.upper[i]
}

// TestResult is the outcome of a Monte Carlo conditional-coverage test.
// INVARIANTS: PValue in [0,1], Statistic >= 0.
type TestResult struct {
	PValue    float64 `json:"p_value"`
	Statistic float64 `json:"observed_statistic"`
}

// Interval is an ordered (Lower, Upper) pair.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// BootstrapResult is the outcome of a bootstrap resampling run.
// The SE interval is symmetric about Statistic; both intervals satisfy
// Lower <= Upper.
type BootstrapResult struct {
	Statistic          float64  `json:"t_obs"`
	SEInterval         Interval `json:"se_interval"`
	PercentileInterval Interval `json:"percentile_interval"`
}
