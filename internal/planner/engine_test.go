package planner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmrl-ops/induction-cli/internal/eval"
	"github.com/kmrl-ops/induction-cli/internal/model"
)

var testNow = time.Date(2024, 1, 22, 4, 0, 0, 0, time.UTC)

// newTestEngine builds an engine with a fixed clock and sequential plan ids
// so runs are fully reproducible.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	seq := 0
	return New(
		eval.All(eval.Tuning{UnpoweredBays: []string{"Workshop-1"}}),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("plan-%04d", seq)
		}),
	)
}

func testConfig() model.SimulationConfig {
	return model.SimulationConfig{
		MaintenanceCapacity: 4,
		CleaningSlots:       6,
		EmergencyReserve:    0,
		BrandingPriority:    true,
		Weather:             model.WeatherNormal,
		PassengerDemand:     model.DemandNormal,
		MaintenanceUrgency:  50,
	}
}

func healthyTrainset(id string) model.Trainset {
	return model.Trainset{
		ID:            id,
		Number:        "KM-" + id,
		Name:          "Set " + id,
		Status:        model.StatusActive,
		Mileage:       45000,
		FitnessExpiry: testNow.AddDate(0, 6, 0),
		JobCards:      model.JobCards{Closed: 10},
		Branding: model.Branding{
			Type:       "Standard Metro",
			Priority:   model.BrandingLow,
			ExpiryDate: testNow.AddDate(1, 0, 0),
		},
		CleaningStatus: model.CleaningStatus{
			LastCleaned:   testNow.Add(-24 * time.Hour),
			NextScheduled: testNow.Add(24 * time.Hour),
			DetailLevel:   model.DetailBasic,
		},
		StablingPosition: "Track-A1",
		Availability:     98,
	}
}

func expiredTrainset(id string) model.Trainset {
	ts := healthyTrainset(id)
	ts.FitnessExpiry = testNow.AddDate(0, 0, -5)
	ts.JobCards.Open = 2
	ts.Availability = 60
	ts.Issues = []string{"Fitness certificate expired"}
	return ts
}

func mixedFleet() []model.Trainset {
	fleet := []model.Trainset{
		healthyTrainset("ts-001"),
		healthyTrainset("ts-002"),
		healthyTrainset("ts-003"),
		healthyTrainset("ts-004"),
		expiredTrainset("ts-005"),
		healthyTrainset("ts-006"),
	}
	fleet[1].Branding.Priority = model.BrandingHigh
	fleet[2].Mileage = 55000
	fleet[3].JobCards.Open = 1
	fleet[5].Status = model.StatusMaintenance
	fleet[5].Availability = 0
	fleet[5].JobCards.Open = 3
	fleet[5].StablingPosition = "Workshop-1"
	return fleet
}

func TestGeneratePlan_RanksAreContiguousPermutation(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	plan, err := engine.GeneratePlan(context.Background(), mixedFleet(), testConfig())
	require.NoError(t, err)
	require.Len(t, plan.Decisions, 6)

	seen := make(map[int]bool)
	for _, d := range plan.Decisions {
		assert.False(t, seen[d.Priority], "duplicate priority %d", d.Priority)
		seen[d.Priority] = true
		assert.GreaterOrEqual(t, d.Priority, 1)
		assert.LessOrEqual(t, d.Priority, 6)
	}
}

func TestGeneratePlan_ExpiredFitnessNeverInService(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	plan, err := engine.GeneratePlan(context.Background(), mixedFleet(), testConfig())
	require.NoError(t, err)

	d := plan.Decision("ts-005")
	require.NotNil(t, d)
	assert.Equal(t, model.ActionMaintenance, d.Recommendation)
}

func TestGeneratePlan_CertificateExpiredWithinDayNeverInService(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	// Expired by hours, not days: still an expired certificate.
	lapsed := healthyTrainset("ts-001")
	lapsed.FitnessExpiry = testNow.Add(-6 * time.Hour)

	plan, err := engine.GeneratePlan(context.Background(),
		[]model.Trainset{lapsed, healthyTrainset("ts-002")}, testConfig())
	require.NoError(t, err)

	d := plan.Decision("ts-001")
	require.NotNil(t, d)
	assert.Equal(t, model.ActionMaintenance, d.Recommendation)
}

// standbyBarEvaluator vetoes standby for one trainset, standing in for a
// depot-side constraint like a missing standby berth.
type standbyBarEvaluator struct {
	id string
}

func (standbyBarEvaluator) Name() string { return "depot" }

func (e standbyBarEvaluator) Evaluate(ts model.Trainset, _ model.SimulationConfig, _ eval.FleetContext) model.EvaluationResult {
	r := model.EvaluationResult{Evaluator: "depot"}
	if ts.ID == e.id {
		r.Reasoning = "no standby berth available"
		r.VetoedActions = []model.Action{model.ActionStandby}
	}
	return r
}

func TestGeneratePlan_DemotionHonorsStandbyVeto(t *testing.T) {
	t.Parallel()
	evaluators := append(eval.All(eval.DefaultTuning()), standbyBarEvaluator{id: "ts-002"})
	engine := New(evaluators,
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string { return "plan-fixed" }),
	)

	weaker := healthyTrainset("ts-002")
	weaker.JobCards.Pending = 2

	cfg := testConfig()
	cfg.ServiceSlots = 1
	plan, err := engine.GeneratePlan(context.Background(),
		[]model.Trainset{healthyTrainset("ts-001"), weaker}, cfg)
	require.NoError(t, err)

	assert.Equal(t, model.ActionService, plan.Decision("ts-001").Recommendation)
	// The weaker set loses its service slot but cannot be parked on standby.
	assert.Equal(t, model.ActionMaintenance, plan.Decision("ts-002").Recommendation)
}

func TestGeneratePlan_Deterministic(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	first, err := engine.GeneratePlan(context.Background(), mixedFleet(), testConfig())
	require.NoError(t, err)
	second, err := engine.GeneratePlan(context.Background(), mixedFleet(), testConfig())
	require.NoError(t, err)

	// Plan ids differ per run; everything else must be identical.
	second.ID = first.ID
	assert.Equal(t, first, second)
}

func TestGeneratePlan_MaintenanceCapacityRespected(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	// Three sets with heavy open work would all pick maintenance on merit.
	fleet := []model.Trainset{healthyTrainset("ts-001")}
	for i := 2; i <= 4; i++ {
		ts := healthyTrainset(fmt.Sprintf("ts-00%d", i))
		ts.JobCards.Open = 5
		ts.Availability = 40
		fleet = append(fleet, ts)
	}

	cfg := testConfig()
	cfg.MaintenanceCapacity = 1
	plan, err := engine.GeneratePlan(context.Background(), fleet, cfg)
	require.NoError(t, err)

	starts := 0
	for _, d := range plan.Decisions {
		if d.Recommendation == model.ActionMaintenance {
			starts++
		}
	}
	assert.LessOrEqual(t, starts, 1)
}

func TestGeneratePlan_ScenarioPristineVsExpired(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	pristine := healthyTrainset("ts-102")
	pristine.Branding.Priority = model.BrandingHigh

	failing := expiredTrainset("ts-101")
	failing.Branding.Priority = model.BrandingHigh

	plan, err := engine.GeneratePlan(context.Background(), []model.Trainset{failing, pristine}, testConfig())
	require.NoError(t, err)

	top := plan.Decision("ts-102")
	require.NotNil(t, top)
	assert.Equal(t, 1, top.Priority)
	assert.Equal(t, model.ActionService, top.Recommendation)

	bottom := plan.Decision("ts-101")
	require.NotNil(t, bottom)
	assert.Equal(t, model.ActionMaintenance, bottom.Recommendation)
	assert.NotEmpty(t, bottom.Conflicts, "high-priority branding against an expired certificate must surface a conflict")
}

func TestGeneratePlan_MandatoryMaintenanceOverCapacityFails(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	fleet := []model.Trainset{
		expiredTrainset("ts-001"),
		expiredTrainset("ts-002"),
		expiredTrainset("ts-003"),
		healthyTrainset("ts-004"),
	}
	cfg := testConfig()
	cfg.MaintenanceCapacity = 1

	_, err := engine.GeneratePlan(context.Background(), fleet, cfg)
	var cie *CapacityInfeasibleError
	require.ErrorAs(t, err, &cie)
	assert.Equal(t, "maintenance_capacity", cie.Constraint)
	assert.Contains(t, cie.Detail, "3 trainsets require mandatory maintenance")
}

func TestGeneratePlan_EmergencyReserveDemotesWeakestService(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	// All four would pick service; pending cards stagger their aggregates.
	var fleet []model.Trainset
	for i := 1; i <= 4; i++ {
		ts := healthyTrainset(fmt.Sprintf("ts-00%d", i))
		ts.JobCards.Pending = i - 1
		fleet = append(fleet, ts)
	}

	cfg := testConfig()
	cfg.ServiceSlots = 4
	cfg.EmergencyReserve = 2

	plan, err := engine.GeneratePlan(context.Background(), fleet, cfg)
	require.NoError(t, err)

	counts := plan.CountByAction()
	assert.Equal(t, 2, counts[model.ActionService])
	assert.Equal(t, 2, counts[model.ActionStandby])

	// The two weakest (most pending cards) stand by.
	assert.Equal(t, model.ActionStandby, plan.Decision("ts-003").Recommendation)
	assert.Equal(t, model.ActionStandby, plan.Decision("ts-004").Recommendation)
	assert.Equal(t, model.ActionService, plan.Decision("ts-001").Recommendation)
	assert.Equal(t, model.ActionService, plan.Decision("ts-002").Recommendation)
}

func TestGeneratePlan_ReserveInfeasibleWhenFleetTooSmall(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	fleet := []model.Trainset{expiredTrainset("ts-001")}
	cfg := testConfig()
	cfg.EmergencyReserve = 2

	_, err := engine.GeneratePlan(context.Background(), fleet, cfg)
	var cie *CapacityInfeasibleError
	require.ErrorAs(t, err, &cie)
	assert.Equal(t, "emergency_reserve", cie.Constraint)
}

func TestGeneratePlan_MissingFleetData(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	t.Run("empty snapshot", func(t *testing.T) {
		t.Parallel()
		_, err := engine.GeneratePlan(context.Background(), nil, testConfig())
		var mfd *MissingFleetDataError
		require.ErrorAs(t, err, &mfd)
	})

	t.Run("entry without id", func(t *testing.T) {
		t.Parallel()
		fleet := []model.Trainset{healthyTrainset("ts-001"), {}}
		_, err := engine.GeneratePlan(context.Background(), fleet, testConfig())
		var mfd *MissingFleetDataError
		require.ErrorAs(t, err, &mfd)
	})

	t.Run("duplicate entry", func(t *testing.T) {
		t.Parallel()
		fleet := []model.Trainset{healthyTrainset("ts-001"), healthyTrainset("ts-001")}
		_, err := engine.GeneratePlan(context.Background(), fleet, testConfig())
		var mfd *MissingFleetDataError
		require.ErrorAs(t, err, &mfd)
		assert.Equal(t, "ts-001", mfd.TrainsetID)
	})

	t.Run("malformed snapshot entry", func(t *testing.T) {
		t.Parallel()
		ts := healthyTrainset("ts-001")
		ts.Status = model.StatusMaintenance // availability must be 0 in shop
		_, err := engine.GeneratePlan(context.Background(), []model.Trainset{ts}, testConfig())
		var mfd *MissingFleetDataError
		require.ErrorAs(t, err, &mfd)
		assert.Equal(t, "ts-001", mfd.TrainsetID)
	})
}

func TestGeneratePlan_InvalidConfigRejected(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	cfg := testConfig()
	cfg.MaintenanceCapacity = 0
	_, err := engine.GeneratePlan(context.Background(), mixedFleet(), cfg)
	assert.Error(t, err)
}

func TestGeneratePlan_ConfidenceBounds(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	plan, err := engine.GeneratePlan(context.Background(), mixedFleet(), testConfig())
	require.NoError(t, err)
	for _, d := range plan.Decisions {
		assert.GreaterOrEqual(t, d.Confidence, 35, "trainset %s", d.TrainsetID)
		assert.LessOrEqual(t, d.Confidence, 100, "trainset %s", d.TrainsetID)
	}
	assert.GreaterOrEqual(t, plan.OptimizationScore, 0.0)
	assert.LessOrEqual(t, plan.OptimizationScore, 100.0)
}

func TestGeneratePlan_MidRepairStaysInShop(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	inShop := healthyTrainset("ts-001")
	inShop.Status = model.StatusMaintenance
	inShop.Availability = 0
	inShop.JobCards.Open = 1
	inShop.StablingPosition = "Workshop-1" // unpowered, vetoes service

	plan, err := engine.GeneratePlan(context.Background(),
		[]model.Trainset{inShop, healthyTrainset("ts-002")}, testConfig())
	require.NoError(t, err)

	assert.Equal(t, model.ActionMaintenance, plan.Decision("ts-001").Recommendation)
}

func TestGeneratePlan_CancelledContext(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.GeneratePlan(ctx, mixedFleet(), testConfig())
	assert.Error(t, err)
}
