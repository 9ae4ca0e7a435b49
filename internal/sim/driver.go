// Package sim implements the what-if simulation driver: it re-runs the
// ranking engine under a perturbed configuration against the same immutable
// fleet snapshot and reports per-metric deltas versus the live baseline plan.
package sim

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/kmrl-ops/induction-cli/internal/model"
	"github.com/kmrl-ops/induction-cli/internal/planner"
)

// Engine is the subset of the planner the driver needs. Satisfied by
// *planner.Engine.
type Engine interface {
	GeneratePlan(ctx context.Context, snapshot []model.Trainset, cfg model.SimulationConfig) (*model.InductionPlan, error)
}

// Driver wraps a ranking engine for side-effect-free what-if runs. It never
// mutates fleet state and never writes the history ledger, so any number of
// simulations may run concurrently against the same snapshot.
type Driver struct {
	engine Engine
}

// NewDriver creates a Driver over the given engine.
func NewDriver(engine Engine) *Driver {
	return &Driver{engine: engine}
}

// Run generates a plan under cfg and compares it against the baseline plan.
// The snapshot must be the same one the baseline was computed from.
// Identical snapshot and config always produce identical output.
func (d *Driver) Run(ctx context.Context, snapshot []model.Trainset, baseline *model.InductionPlan, cfg model.SimulationConfig) (*model.InductionPlan, *model.Delta, error) {
	if baseline == nil {
		return nil, nil, eris.New("sim: baseline plan required")
	}

	plan, err := d.engine.GeneratePlan(ctx, snapshot, cfg)
	if err != nil {
		var mfd *planner.MissingFleetDataError
		var cie *planner.CapacityInfeasibleError
		if eris.As(err, &mfd) || eris.As(err, &cie) {
			return nil, nil, err
		}
		return nil, nil, eris.Wrap(err, "sim: generate plan")
	}

	delta := diff(snapshot, baseline, plan)
	return plan, delta, nil
}

// diff derives the four dashboard metrics for both plans and subtracts.
func diff(snapshot []model.Trainset, baseline, simulated *model.InductionPlan) *model.Delta {
	base := metrics(snapshot, baseline)
	next := metrics(snapshot, simulated)
	return &model.Delta{
		Availability: round1(next.availability - base.availability),
		Efficiency:   round1(next.efficiency - base.efficiency),
		CostImpact:   round1(next.cost - base.cost),
		RiskScore:    round1(next.risk - base.risk),
	}
}

type planMetrics struct {
	availability float64
	efficiency   float64
	cost         float64
	risk         float64
}

// metrics reduces a plan to comparable proxies:
//   - availability: mean snapshot availability of the service set;
//   - efficiency: mean decision confidence;
//   - cost: shop and cleaning load (maintenance inductions weigh most);
//   - risk: conflict count plus thin standby cover.
func metrics(snapshot []model.Trainset, plan *model.InductionPlan) planMetrics {
	byID := make(map[string]model.Trainset, len(snapshot))
	for _, ts := range snapshot {
		byID[ts.ID] = ts
	}

	var m planMetrics
	serviceCount, standbyCount := 0, 0
	availTotal, confTotal := 0.0, 0.0
	conflicts := 0
	for _, d := range plan.Decisions {
		confTotal += float64(d.Confidence)
		conflicts += len(d.Conflicts)
		switch d.Recommendation {
		case model.ActionService:
			serviceCount++
			availTotal += float64(byID[d.TrainsetID].Availability)
		case model.ActionStandby:
			standbyCount++
		case model.ActionMaintenance:
			m.cost += 3.0
		}
	}

	if serviceCount > 0 {
		m.availability = availTotal / float64(serviceCount)
	}
	if len(plan.Decisions) > 0 {
		m.efficiency = confTotal / float64(len(plan.Decisions))
	}
	m.cost += float64(plan.Config.CleaningSlots) * 0.5

	m.risk = float64(conflicts * 5)
	if standbyCount < plan.Config.EmergencyReserve {
		m.risk += float64(plan.Config.EmergencyReserve-standbyCount) * 10
	}
	if serviceCount == 0 {
		m.risk += 20
	}
	return m
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
