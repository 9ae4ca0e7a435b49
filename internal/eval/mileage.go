package eval

import (
	"fmt"
	"math"

	"github.com/kmrl-ops/induction-cli/internal/model"
)

// MileageEvaluator implements mileage balancing against the fleet mean.
// Running well above the mean accelerates bogie and brake wear; running well
// below it starves the set of revenue and branding exposure. Either direction
// beyond the threshold draws a penalty that grows with the excess.
type MileageEvaluator struct {
	DeviationThreshold float64
}

func (MileageEvaluator) Name() string { return model.EvaluatorMileage }

func (e MileageEvaluator) Evaluate(ts model.Trainset, _ model.SimulationConfig, fleet FleetContext) model.EvaluationResult {
	result := model.EvaluationResult{Evaluator: e.Name()}

	if fleet.MeanMileage <= 0 {
		result.Reasoning = "fleet mileage baseline unavailable"
		return result
	}

	deviation := (float64(ts.Mileage) - fleet.MeanMileage) / fleet.MeanMileage
	excess := math.Abs(deviation) - e.DeviationThreshold
	if excess <= 0 {
		result.Contribution = 5
		result.Reasoning = "mileage balanced with fleet mean"
		return result
	}

	result.Contribution = -math.Min(excess*100, 30)
	direction := "above"
	if deviation < 0 {
		direction = "below"
	}
	result.Reasoning = fmt.Sprintf("mileage %.0f%% %s fleet mean", math.Abs(deviation)*100, direction)
	return result
}
