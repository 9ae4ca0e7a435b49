package eval

import (
	"fmt"

	"github.com/kmrl-ops/induction-cli/internal/model"
)

// FitnessEvaluator checks the statutory fitness certificate. An expired or
// unusable certificate is an absolute bar on carrying passengers, so it
// hard-vetoes both service and standby.
type FitnessEvaluator struct {
	RenewalWindowDays int
}

func (FitnessEvaluator) Name() string { return model.EvaluatorFitness }

func (e FitnessEvaluator) Evaluate(ts model.Trainset, _ model.SimulationConfig, fleet FleetContext) model.EvaluationResult {
	result := model.EvaluationResult{Evaluator: e.Name()}

	if ts.FitnessExpiry.IsZero() {
		// Anomalous feed data is normalized into a veto, never an error.
		result.Contribution = -80
		result.Reasoning = "fitness certificate record missing or invalid"
		result.VetoedActions = []model.Action{model.ActionService, model.ActionStandby}
		return result
	}

	days := daysUntil(fleet.Now, ts.FitnessExpiry)
	switch {
	case days < 0:
		result.Contribution = -80
		result.Reasoning = "fitness certificate expired"
		result.VetoedActions = []model.Action{model.ActionService, model.ActionStandby}
	case days <= e.RenewalWindowDays:
		result.Contribution = -20
		result.Reasoning = "fitness certificate renewal due"
	default:
		result.Contribution = 10
		result.Reasoning = fmt.Sprintf("fitness certificate valid for %d days", days)
	}
	return result
}
