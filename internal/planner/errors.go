package planner

import "fmt"

// MissingFleetDataError reports that a trainset referenced by the planning
// run has no usable snapshot. The engine never silently omits a trainset; it
// fails the whole run instead.
type MissingFleetDataError struct {
	TrainsetID string
	Reason     string
}

func (e *MissingFleetDataError) Error() string {
	if e.TrainsetID == "" {
		return fmt.Sprintf("missing fleet data: %s", e.Reason)
	}
	return fmt.Sprintf("missing fleet data for trainset %s: %s", e.TrainsetID, e.Reason)
}

// CapacityInfeasibleError reports that the run configuration cannot satisfy
// a mandatory fleet-wide constraint. No partial plan is produced.
type CapacityInfeasibleError struct {
	Constraint string
	Detail     string
}

func (e *CapacityInfeasibleError) Error() string {
	return fmt.Sprintf("capacity infeasible (%s): %s", e.Constraint, e.Detail)
}
