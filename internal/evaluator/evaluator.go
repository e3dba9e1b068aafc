package evaluator

import (
	"covcheck/domain/coverage"
	apperrors "covcheck/internal/errors"
	"covcheck/ports"
)

// Config bundles the per-family hyperparameters. Only the section matching
// the selected family is consulted.
type Config struct {
	Tree   TreeConfig
	Forest ForestConfig
	GAM    GAMConfig
}

// New resolves the family tag to a fresh untrained coverage model. The tag
// is resolved exactly once, at analysis construction; an unknown tag with no
// custom model supplied is an explicit failure, never a silent nil.
func New(family coverage.Family, cfg Config, custom ports.CoverageModel) (ports.CoverageModel, error) {
	switch family {
	case coverage.FamilyCART:
		return NewTree(cfg.Tree), nil
	case coverage.FamilyRandomForest:
		return NewForest(cfg.Forest), nil
	case coverage.FamilyGAM:
		return NewGAM(cfg.GAM), nil
	case coverage.FamilyCustom:
		if custom == nil {
			return nil, apperrors.New(apperrors.CodeUnsupportedEvaluator,
				"custom evaluator family selected but no model supplied")
		}
		return custom, nil
	default:
		return nil, apperrors.Newf(apperrors.CodeUnsupportedEvaluator,
			"unknown coverage evaluator family %q", family)
	}
}
