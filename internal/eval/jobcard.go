package eval

import (
	"fmt"

	"github.com/kmrl-ops/induction-cli/internal/model"
)

// Per-card scoring constants. Each open card beyond the first costs
// progressively more; unresolved work compounds operational risk.
const (
	openCardPenalty    = 15.0
	openCardEscalation = 5.0
	pendingCardPenalty = 4.0
	noOpenCardBonus    = 15.0
)

// JobCardEvaluator penalizes unresolved work orders. Open cards block
// readiness directly; pending cards (awaiting parts or approval) weigh less.
type JobCardEvaluator struct{}

func (JobCardEvaluator) Name() string { return model.EvaluatorJobCards }

func (e JobCardEvaluator) Evaluate(ts model.Trainset, _ model.SimulationConfig, _ FleetContext) model.EvaluationResult {
	result := model.EvaluationResult{Evaluator: e.Name()}

	open := ts.JobCards.Open
	pending := ts.JobCards.Pending
	if open < 0 || pending < 0 {
		result.Contribution = -50
		result.Reasoning = "job card counts invalid"
		result.VetoedActions = []model.Action{model.ActionService}
		return result
	}

	if open == 0 {
		result.Contribution = noOpenCardBonus
		result.Reasoning = "no open job cards"
	} else {
		// n open cards: base penalty per card plus an escalation for each
		// additional card (15, 35, 60, 90, ...).
		penalty := openCardPenalty*float64(open) + openCardEscalation*float64(open*(open-1))/2
		result.Contribution = -penalty
		result.Reasoning = fmt.Sprintf("%d open job cards outstanding", open)
	}

	if pending > 0 {
		result.Contribution -= pendingCardPenalty * float64(pending)
		if result.Reasoning != "" {
			result.Reasoning += fmt.Sprintf("; %d pending job cards awaiting parts or approval", pending)
		}
	}
	return result
}
