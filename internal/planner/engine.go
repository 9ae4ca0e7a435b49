// Package planner implements the induction ranking engine: it composes the
// constraint evaluators into a confidence-weighted recommendation per
// trainset and produces a total-ordered induction plan honoring fleet-wide
// capacity constraints.
package planner

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/kmrl-ops/induction-cli/internal/eval"
	"github.com/kmrl-ops/induction-cli/internal/model"
)

const (
	// confidenceFloor is the minimum confidence a decision can carry.
	confidenceFloor = 35
	// conflictPenalty is deducted from confidence per detected conflict.
	conflictPenalty = 8
	// comfortableMargin is the score margin over the next-best action at
	// which confidence stops being discounted.
	comfortableMargin = 20.0
	// soleActionMargin stands in for the margin when vetoes leave only one
	// feasible action.
	soleActionMargin = 25.0
)

// Engine generates induction plans from fleet snapshots. It holds no mutable
// state between runs; every call computes from its inputs alone.
type Engine struct {
	evaluators  []eval.Evaluator
	now         func() time.Time
	newID       func() string
	parallelism int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source. Used by the simulation
// driver and tests to make runs fully reproducible.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides plan id generation.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithParallelism bounds the evaluator fan-out across trainsets.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// New creates an Engine over the given evaluator set.
func New(evaluators []eval.Evaluator, opts ...Option) *Engine {
	e := &Engine{
		evaluators:  evaluators,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
		parallelism: 8,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// candidate carries the intermediate scoring state for one trainset between
// the evaluation phase and the allocation phase.
type candidate struct {
	trainset  model.Trainset
	results   []model.EvaluationResult
	aggregate float64
	vetoed    map[model.Action]bool
	subScores map[model.Action]float64
	action    model.Action
	mandatory bool
	conflicts []string
}

// GeneratePlan runs every evaluator for every trainset, chooses an action
// per trainset, enforces fleet-wide capacity constraints, and assigns
// priority ranks. It either returns a complete plan or fails with
// MissingFleetDataError / CapacityInfeasibleError; it never returns a
// partial plan.
func (e *Engine) GeneratePlan(ctx context.Context, snapshot []model.Trainset, cfg model.SimulationConfig) (*model.InductionPlan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "planner: invalid config")
	}
	cfg = cfg.Normalize()

	fleet, err := checkSnapshot(snapshot)
	if err != nil {
		return nil, err
	}

	fctx := eval.FleetContext{
		Now:         e.now().UTC(),
		MeanMileage: model.FleetMeanMileage(fleet),
	}

	candidates, err := e.evaluate(ctx, fleet, cfg, fctx)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		e.scoreCandidate(&candidates[i], cfg, fctx)
	}

	if err := allocate(candidates, cfg); err != nil {
		return nil, err
	}

	return e.assemble(candidates, cfg, fctx), nil
}

// checkSnapshot validates the snapshot and returns a defensive copy sorted
// by trainset id for deterministic downstream ordering.
func checkSnapshot(snapshot []model.Trainset) ([]model.Trainset, error) {
	if len(snapshot) == 0 {
		return nil, &MissingFleetDataError{Reason: "empty fleet snapshot"}
	}
	fleet := make([]model.Trainset, len(snapshot))
	copy(fleet, snapshot)
	sort.Slice(fleet, func(i, j int) bool { return fleet[i].ID < fleet[j].ID })

	seen := make(map[string]bool, len(fleet))
	for _, ts := range fleet {
		if ts.ID == "" {
			return nil, &MissingFleetDataError{Reason: "snapshot entry without trainset id"}
		}
		if seen[ts.ID] {
			return nil, &MissingFleetDataError{TrainsetID: ts.ID, Reason: "duplicate snapshot entry"}
		}
		seen[ts.ID] = true
		if err := ts.Validate(); err != nil {
			return nil, &MissingFleetDataError{TrainsetID: ts.ID, Reason: err.Error()}
		}
	}
	return fleet, nil
}

// evaluate fans the evaluator set out across trainsets. Evaluators are pure,
// so the fan-out needs no locking; g.Wait is the barrier before allocation.
func (e *Engine) evaluate(ctx context.Context, fleet []model.Trainset, cfg model.SimulationConfig, fctx eval.FleetContext) ([]candidate, error) {
	candidates := make([]candidate, len(fleet))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, ts := range fleet {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results := make([]model.EvaluationResult, 0, len(e.evaluators))
			for _, ev := range e.evaluators {
				results = append(results, ev.Evaluate(ts, cfg, fctx))
			}
			candidates[i] = candidate{trainset: ts, results: results}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "planner: evaluation interrupted")
	}
	return candidates, nil
}

// scoreCandidate computes the weighted aggregate, per-action sub-scores, the
// pre-capacity action choice, and the conflict set for one trainset.
func (e *Engine) scoreCandidate(c *candidate, cfg model.SimulationConfig, fctx eval.FleetContext) {
	c.vetoed = make(map[model.Action]bool)
	for _, r := range c.results {
		c.aggregate += cfg.Weight(r.Evaluator) * r.Contribution
		for _, a := range r.VetoedActions {
			c.vetoed[a] = true
		}
	}
	c.conflicts = eval.DetectConflicts(c.results)

	ts := c.trainset
	c.subScores = map[model.Action]float64{
		model.ActionService:     c.aggregate + 0.3*float64(ts.Availability) + demandAdjustment(cfg.PassengerDemand),
		model.ActionStandby:     0.6*c.aggregate + 12,
		model.ActionMaintenance: maintenanceNeed(ts, cfg, fctx),
	}

	c.mandatory = c.vetoed[model.ActionService] && c.vetoed[model.ActionStandby]
	switch {
	case c.mandatory:
		c.action = model.ActionMaintenance
	case c.vetoed[model.ActionService] && ts.Status.InShop():
		// Mid-repair and barred from service: keep it in the shop.
		c.action = model.ActionMaintenance
	default:
		c.action = bestAllowedAction(c, nil)
	}
}

// demandAdjustment shifts the service sub-score by expected passenger demand.
func demandAdjustment(d model.Demand) float64 {
	switch d {
	case model.DemandPeak:
		return 10
	case model.DemandLow:
		return -5
	}
	return 0
}

// maintenanceNeed scores how badly a trainset needs shop time.
func maintenanceNeed(ts model.Trainset, cfg model.SimulationConfig, fctx eval.FleetContext) float64 {
	need := 12*float64(ts.JobCards.Open) + 4*float64(ts.JobCards.Pending)
	need += 0.25 * float64(100-ts.Availability)
	if !ts.NextMaintenance.IsZero() && ts.NextMaintenance.Before(fctx.Now) {
		need += 20
	}
	if 100-ts.Availability >= cfg.MaintenanceUrgency {
		need += 15
	}
	return need
}

// bestAllowedAction picks the highest sub-score among actions that are
// neither vetoed nor excluded, with a fixed action-order tie-break.
func bestAllowedAction(c *candidate, exclude map[model.Action]bool) model.Action {
	best := model.ActionMaintenance
	bestScore := math.Inf(-1)
	for _, a := range model.Actions {
		if c.vetoed[a] || exclude[a] {
			continue
		}
		if s := c.subScores[a]; s > bestScore {
			best, bestScore = a, s
		}
	}
	return best
}

// allocate enforces the fleet-wide capacity constraints, demoting the
// lowest-scoring candidates first when a cap is exceeded.
func allocate(candidates []candidate, cfg model.SimulationConfig) error {
	// Maintenance capacity counts only fresh shop inductions; trainsets
	// already under maintenance continue without consuming a new slot.
	starts := func(c *candidate) bool {
		return c.action == model.ActionMaintenance && !c.trainset.Status.InShop()
	}

	mandatoryStarts := 0
	for i := range candidates {
		if candidates[i].mandatory && starts(&candidates[i]) {
			mandatoryStarts++
		}
	}
	if mandatoryStarts > cfg.MaintenanceCapacity {
		return &CapacityInfeasibleError{
			Constraint: "maintenance_capacity",
			Detail: fmt.Sprintf("maintenance capacity %d but %d trainsets require mandatory maintenance",
				cfg.MaintenanceCapacity, mandatoryStarts),
		}
	}

	// Demote optional maintenance starts beyond remaining capacity.
	for over := countIf(candidates, starts) - cfg.MaintenanceCapacity; over > 0; over-- {
		idx := lowestScored(candidates, func(c *candidate) bool {
			return starts(c) && !c.mandatory
		})
		if idx < 0 {
			break
		}
		candidates[idx].action = bestAllowedAction(&candidates[idx], map[model.Action]bool{model.ActionMaintenance: true})
	}

	// Service quota: explicit slots, or whatever the reserve leaves room for.
	serviceCap := cfg.ServiceSlots
	if serviceCap <= 0 {
		serviceCap = len(candidates) - cfg.EmergencyReserve
		if serviceCap < 0 {
			serviceCap = 0
		}
	}
	inService := func(c *candidate) bool { return c.action == model.ActionService }
	for over := countIf(candidates, inService) - serviceCap; over > 0; over-- {
		idx := lowestScored(candidates, inService)
		if idx < 0 {
			break
		}
		demoteFromService(&candidates[idx])
	}

	// Emergency reserve: demote the weakest service candidates to standby
	// until the minimum is met.
	onStandby := func(c *candidate) bool { return c.action == model.ActionStandby }
	for countIf(candidates, onStandby) < cfg.EmergencyReserve {
		idx := lowestScored(candidates, inService)
		if idx < 0 {
			return &CapacityInfeasibleError{
				Constraint: "emergency_reserve",
				Detail: fmt.Sprintf("emergency reserve minimum %d but only %d trainsets available outside maintenance",
					cfg.EmergencyReserve, countIf(candidates, onStandby)),
			}
		}
		demoteFromService(&candidates[idx])
	}
	return nil
}

// demoteFromService moves a service candidate to standby, or to its best
// remaining action when standby is vetoed.
func demoteFromService(c *candidate) {
	if c.vetoed[model.ActionStandby] {
		c.action = bestAllowedAction(c, map[model.Action]bool{model.ActionService: true})
		return
	}
	c.action = model.ActionStandby
}

func countIf(candidates []candidate, pred func(*candidate) bool) int {
	n := 0
	for i := range candidates {
		if pred(&candidates[i]) {
			n++
		}
	}
	return n
}

// lowestScored returns the index of the lowest-aggregate candidate matching
// pred, or -1. Ties resolve to the higher trainset id so the lower id keeps
// its assignment (candidates arrive sorted by id).
func lowestScored(candidates []candidate, pred func(*candidate) bool) int {
	idx := -1
	for i := range candidates {
		if !pred(&candidates[i]) {
			continue
		}
		if idx < 0 || candidates[i].aggregate <= candidates[idx].aggregate {
			idx = i
		}
	}
	return idx
}

// margin returns the chosen action's advantage over the next-best feasible
// action. When vetoes leave a single feasible action the decision is treated
// as comfortably determined.
func (c *candidate) margin() float64 {
	best := math.Inf(-1)
	found := false
	for _, a := range model.Actions {
		if a == c.action || c.vetoed[a] {
			continue
		}
		if s := c.subScores[a]; s > best {
			best, found = s, true
		}
	}
	if !found {
		return soleActionMargin
	}
	m := c.subScores[c.action] - best
	if m < 0 {
		// Capacity demotion moved this trainset off its top action.
		m = 0
	}
	return m
}

// assemble sorts by aggregate score, assigns contiguous priority ranks,
// computes per-decision confidence, and derives the plan-level optimization
// score from the mean normalized margin.
func (e *Engine) assemble(candidates []candidate, cfg model.SimulationConfig, fctx eval.FleetContext) *model.InductionPlan {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].aggregate != candidates[j].aggregate {
			return candidates[i].aggregate > candidates[j].aggregate
		}
		return candidates[i].trainset.ID < candidates[j].trainset.ID
	})

	decisions := make([]model.InductionDecision, 0, len(candidates))
	marginTotal := 0.0
	for rank, c := range candidates {
		m := c.margin()
		marginTotal += normalizeMargin(m)

		reasoning := make([]string, 0, len(c.results))
		for _, r := range c.results {
			if r.Reasoning != "" {
				reasoning = append(reasoning, r.Reasoning)
			}
		}

		decisions = append(decisions, model.InductionDecision{
			TrainsetID:     c.trainset.ID,
			Recommendation: c.action,
			Priority:       rank + 1,
			Score:          round2(c.aggregate),
			Reasoning:      reasoning,
			Conflicts:      c.conflicts,
			Confidence:     confidence(m, len(c.conflicts)),
		})
	}

	return &model.InductionPlan{
		ID:                e.newID(),
		GeneratedAt:       fctx.Now,
		Config:            cfg,
		Decisions:         decisions,
		OptimizationScore: round2(marginTotal / float64(len(candidates))),
	}
}

// confidence starts at 100, discounts thin margins, deducts a fixed penalty
// per conflict, and floors out rather than going asymptotic.
func confidence(margin float64, conflicts int) int {
	conf := 100.0
	if margin < comfortableMargin {
		conf -= (comfortableMargin - margin) * 0.75
	}
	conf -= float64(conflicts * conflictPenalty)
	if conf < confidenceFloor {
		conf = confidenceFloor
	}
	return int(math.Round(conf))
}

// normalizeMargin maps a non-negative margin onto 0-100 with saturation.
func normalizeMargin(m float64) float64 {
	if m <= 0 {
		return 0
	}
	return m / (m + 40) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
