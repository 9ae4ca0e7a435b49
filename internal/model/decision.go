package model

import "time"

// Action is a recommended disposition for one trainset in an induction plan.
type Action string

const (
	ActionService     Action = "service"
	ActionStandby     Action = "standby"
	ActionMaintenance Action = "maintenance"
)

// Actions lists every action in a fixed order, used for exhaustive
// per-action scoring.
var Actions = []Action{ActionService, ActionStandby, ActionMaintenance}

// Valid reports whether a is a recognized action.
func (a Action) Valid() bool {
	switch a {
	case ActionService, ActionStandby, ActionMaintenance:
		return true
	}
	return false
}

// EvaluationResult is one evaluator's verdict on one trainset.
type EvaluationResult struct {
	Evaluator    string   `json:"evaluator"`
	Contribution float64  `json:"contribution"`
	Reasoning    string   `json:"reasoning,omitempty"`
	// VetoedActions lists actions this evaluator forbids outright,
	// regardless of any score.
	VetoedActions []Action `json:"vetoed_actions,omitempty"`
}

// Vetoes reports whether the result hard-vetoes the given action.
func (r EvaluationResult) Vetoes(action Action) bool {
	for _, a := range r.VetoedActions {
		if a == action {
			return true
		}
	}
	return false
}

// InductionDecision is the plan entry for a single trainset.
type InductionDecision struct {
	TrainsetID     string   `json:"trainset_id"`
	Recommendation Action   `json:"recommendation"`
	Priority       int      `json:"priority"`
	Score          float64  `json:"score"`
	Reasoning      []string `json:"reasoning"`
	Conflicts      []string `json:"conflicts,omitempty"`
	Confidence     int      `json:"confidence"`
}

// InductionPlan is one complete, immutable induction ranking. Regeneration
// always produces a new plan value.
type InductionPlan struct {
	ID                string              `json:"id"`
	GeneratedAt       time.Time           `json:"generated_at"`
	Config            SimulationConfig    `json:"config"`
	Decisions         []InductionDecision `json:"decisions"`
	OptimizationScore float64             `json:"optimization_score"`
}

// Decision returns the decision for a trainset id, or nil if absent.
func (p *InductionPlan) Decision(trainsetID string) *InductionDecision {
	for i := range p.Decisions {
		if p.Decisions[i].TrainsetID == trainsetID {
			return &p.Decisions[i]
		}
	}
	return nil
}

// CountByAction tallies decisions per recommended action.
func (p *InductionPlan) CountByAction() map[Action]int {
	counts := make(map[Action]int, len(Actions))
	for _, d := range p.Decisions {
		counts[d.Recommendation]++
	}
	return counts
}

// Delta compares a simulated plan against the live baseline, per metric.
// Values are simulated minus baseline; positive availability/efficiency and
// negative cost/risk are improvements.
type Delta struct {
	Availability float64 `json:"availability"`
	Efficiency   float64 `json:"efficiency"`
	CostImpact   float64 `json:"cost_impact"`
	RiskScore    float64 `json:"risk_score"`
}
