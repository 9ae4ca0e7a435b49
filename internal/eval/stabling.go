package eval

import (
	"github.com/kmrl-ops/induction-cli/internal/model"
)

// StablingEvaluator is a pure feasibility check: a trainset stabled in a bay
// without shore power cannot complete overnight prep (charging, pre-heating)
// and therefore cannot be inducted into morning service from that position.
// It contributes no score either way.
type StablingEvaluator struct {
	UnpoweredBays []string
}

func (StablingEvaluator) Name() string { return model.EvaluatorStabling }

func (e StablingEvaluator) Evaluate(ts model.Trainset, _ model.SimulationConfig, _ FleetContext) model.EvaluationResult {
	result := model.EvaluationResult{Evaluator: e.Name()}

	if ts.StablingPosition == "" {
		result.Reasoning = "stabling position unknown"
		result.VetoedActions = []model.Action{model.ActionService}
		return result
	}

	for _, bay := range e.UnpoweredBays {
		if bay == ts.StablingPosition {
			result.Reasoning = "stabling bay lacks shore power for overnight service prep"
			result.VetoedActions = []model.Action{model.ActionService}
			return result
		}
	}

	result.Reasoning = "stabling position supports service induction"
	return result
}
