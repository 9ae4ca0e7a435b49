package eval

import (
	"github.com/kmrl-ops/induction-cli/internal/model"
)

// BrandingEvaluator pushes high-priority advertising wraps into revenue
// service while their contracts still pay for exposure. Low-priority wraps
// are neutral; the whole factor can be switched off per run.
type BrandingEvaluator struct {
	ExpiryWindowDays int
}

func (BrandingEvaluator) Name() string { return model.EvaluatorBranding }

func (e BrandingEvaluator) Evaluate(ts model.Trainset, cfg model.SimulationConfig, fleet FleetContext) model.EvaluationResult {
	result := model.EvaluationResult{Evaluator: e.Name()}

	if !cfg.BrandingPriority {
		result.Reasoning = "branding prioritization disabled"
		return result
	}

	switch ts.Branding.Priority {
	case model.BrandingHigh:
		switch {
		case !ts.Branding.ExpiryDate.IsZero() && daysUntil(fleet.Now, ts.Branding.ExpiryDate) <= e.ExpiryWindowDays:
			result.Contribution = 30
			result.Reasoning = "high-priority branding nearing contract expiry, exposure needed"
		case ts.Status != model.StatusActive:
			// Not running recently means the advertiser is owed exposure.
			result.Contribution = 35
			result.Reasoning = "high-priority branding with low recent exposure"
		default:
			result.Contribution = 20
			result.Reasoning = "high-priority branding contract active"
		}
	case model.BrandingMedium:
		result.Contribution = 8
		result.Reasoning = "medium-priority branding contract"
	default:
		result.Reasoning = "no branding exposure commitment"
	}
	return result
}
