package eval

import (
	"time"

	"github.com/kmrl-ops/induction-cli/internal/model"
)

// CleaningEvaluator scores interior cleaning readiness. Overdue cleaning and
// detail levels below the branding policy minimum draw penalties; a fresh
// clean earns a bonus. Bad weather tightens the overdue penalty since sets
// foul faster in rain.
type CleaningEvaluator struct {
	FreshWindowHours int
}

func (CleaningEvaluator) Name() string { return model.EvaluatorCleaning }

// policyMinimum maps branding priority to the minimum acceptable cleaning
// detail level: advertisers paying for high-priority wraps expect deep-clean
// interiors.
func policyMinimum(p model.BrandingPriority) model.DetailLevel {
	if p == model.BrandingHigh {
		return model.DetailDeep
	}
	return model.DetailBasic
}

func (e CleaningEvaluator) Evaluate(ts model.Trainset, cfg model.SimulationConfig, fleet FleetContext) model.EvaluationResult {
	result := model.EvaluationResult{Evaluator: e.Name()}

	contribution := 0.0
	reasoning := ""

	if !ts.CleaningStatus.NextScheduled.IsZero() && ts.CleaningStatus.NextScheduled.Before(fleet.Now) {
		penalty := 15.0
		if cfg.Weather != model.WeatherNormal {
			penalty *= 1.5
		}
		contribution -= penalty
		reasoning = "scheduled cleaning overdue"
	}

	if ts.CleaningStatus.DetailLevel.Rank() < policyMinimum(ts.Branding.Priority).Rank() {
		contribution -= 10
		if reasoning != "" {
			reasoning += "; "
		}
		reasoning += "cleaning detail below branding policy minimum"
	}

	freshWindow := time.Duration(e.FreshWindowHours) * time.Hour
	if !ts.CleaningStatus.LastCleaned.IsZero() && fleet.Now.Sub(ts.CleaningStatus.LastCleaned) <= freshWindow {
		contribution += 12
		if reasoning != "" {
			reasoning += "; "
		}
		reasoning += "freshly cleaned"
	}

	if reasoning == "" {
		reasoning = "cleaning schedule on track"
	}
	result.Contribution = contribution
	result.Reasoning = reasoning
	return result
}
