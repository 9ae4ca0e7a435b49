package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTrainset() Trainset {
	return Trainset{
		ID:            "ts-001",
		Number:        "KM-001",
		Name:          "Krishna",
		Status:        StatusActive,
		Mileage:       45000,
		FitnessExpiry: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		JobCards:      JobCards{Open: 1, Closed: 12},
		Availability:  92,
	}
}

func TestTrainsetValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Trainset)
		wantErr string
	}{
		{"valid", func(*Trainset) {}, ""},
		{"missing id", func(ts *Trainset) { ts.ID = "" }, "missing id"},
		{"unknown status", func(ts *Trainset) { ts.Status = "retired" }, "unknown status"},
		{"negative mileage", func(ts *Trainset) { ts.Mileage = -1 }, "negative mileage"},
		{"negative job cards", func(ts *Trainset) { ts.JobCards.Open = -2 }, "negative job card"},
		{"availability over 100", func(ts *Trainset) { ts.Availability = 101 }, "out of range"},
		{"in shop with availability", func(ts *Trainset) {
			ts.Status = StatusMaintenance
			ts.Availability = 40
		}, "availability must be 0"},
		{"out of service idle", func(ts *Trainset) {
			ts.Status = StatusOutOfService
			ts.Availability = 0
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts := validTrainset()
			tt.mutate(&ts)
			err := ts.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSimulationConfigValidate(t *testing.T) {
	t.Parallel()

	valid := SimulationConfig{
		MaintenanceCapacity: 4,
		CleaningSlots:       6,
		EmergencyReserve:    2,
		Weather:             WeatherNormal,
		PassengerDemand:     DemandNormal,
		MaintenanceUrgency:  50,
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*SimulationConfig)
	}{
		{"zero maintenance capacity", func(c *SimulationConfig) { c.MaintenanceCapacity = 0 }},
		{"zero cleaning slots", func(c *SimulationConfig) { c.CleaningSlots = 0 }},
		{"negative reserve", func(c *SimulationConfig) { c.EmergencyReserve = -1 }},
		{"urgency out of range", func(c *SimulationConfig) { c.MaintenanceUrgency = 101 }},
		{"unknown weather", func(c *SimulationConfig) { c.Weather = "hail" }},
		{"unknown demand", func(c *SimulationConfig) { c.PassengerDemand = "surge" }},
		{"negative weight", func(c *SimulationConfig) { c.Weights = map[string]float64{EvaluatorFitness: -1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSimulationConfigNormalize(t *testing.T) {
	t.Parallel()

	cfg := SimulationConfig{Weights: map[string]float64{EvaluatorBranding: 2.5, EvaluatorMileage: 0}}
	norm := cfg.Normalize()

	require.Len(t, norm.Weights, len(EvaluatorNames))
	assert.Equal(t, 2.5, norm.Weights[EvaluatorBranding])
	// Explicit zero disables; absent defaults to 1.
	assert.Equal(t, 0.0, norm.Weights[EvaluatorMileage])
	assert.Equal(t, 1.0, norm.Weights[EvaluatorFitness])

	// Original is untouched.
	assert.Len(t, cfg.Weights, 2)
}

func TestSimulationConfigWeight(t *testing.T) {
	t.Parallel()

	var cfg SimulationConfig
	assert.Equal(t, 1.0, cfg.Weight(EvaluatorFitness))

	cfg.Weights = map[string]float64{EvaluatorFitness: 3}
	assert.Equal(t, 3.0, cfg.Weight(EvaluatorFitness))
	assert.Equal(t, 1.0, cfg.Weight(EvaluatorCleaning))
}

func TestHistoryEntryValidate(t *testing.T) {
	t.Parallel()

	valid := HistoryEntry{
		ID:         "e-001",
		Date:       time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		TrainsetID: "ts-001",
		Decision:   ActionService,
		Outcome:    OutcomeSuccessful,
		Supervisor: "Rajesh Kumar",
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*HistoryEntry)
	}{
		{"missing id", func(e *HistoryEntry) { e.ID = "" }},
		{"missing trainset", func(e *HistoryEntry) { e.TrainsetID = "" }},
		{"zero date", func(e *HistoryEntry) { e.Date = time.Time{} }},
		{"unknown decision", func(e *HistoryEntry) { e.Decision = "scrap" }},
		{"unknown outcome", func(e *HistoryEntry) { e.Outcome = "meh" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := valid
			tt.mutate(&e)
			assert.Error(t, e.Validate())
		})
	}
}

func TestComputeKPIs(t *testing.T) {
	t.Parallel()

	fleet := []Trainset{
		{ID: "ts-001", Status: StatusActive, Availability: 90, JobCards: JobCards{Open: 2, Pending: 1, Closed: 7}},
		{ID: "ts-002", Status: StatusStandby, Availability: 80, JobCards: JobCards{Closed: 5}},
		{ID: "ts-003", Status: StatusMaintenance, Availability: 0, JobCards: JobCards{Open: 3, Closed: 2}},
		{ID: "ts-004", Status: StatusOutOfService, Availability: 0},
	}

	s := ComputeKPIs(fleet)
	assert.Equal(t, 4, s.FleetSize)
	assert.Equal(t, 1, s.ActiveCount)
	assert.Equal(t, 1, s.StandbyCount)
	assert.Equal(t, 2, s.InShopCount)
	assert.Equal(t, 42.5, s.Availability)
	assert.Equal(t, 5, s.OpenJobCards)
	assert.Equal(t, 1, s.PendingJobCards)
	// 14 closed of 20 total cards.
	assert.Equal(t, 70.0, s.MaintenanceEfficiency)
}

func TestComputeKPIs_EmptyFleet(t *testing.T) {
	t.Parallel()
	assert.Equal(t, KPISummary{}, ComputeKPIs(nil))
}

func TestFleetMeanMileage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, FleetMeanMileage(nil))
	fleet := []Trainset{{Mileage: 40000}, {Mileage: 50000}}
	assert.Equal(t, 45000.0, FleetMeanMileage(fleet))
}

func TestInductionPlanHelpers(t *testing.T) {
	t.Parallel()

	plan := &InductionPlan{Decisions: []InductionDecision{
		{TrainsetID: "ts-001", Recommendation: ActionService},
		{TrainsetID: "ts-002", Recommendation: ActionService},
		{TrainsetID: "ts-003", Recommendation: ActionMaintenance},
	}}

	require.NotNil(t, plan.Decision("ts-003"))
	assert.Equal(t, ActionMaintenance, plan.Decision("ts-003").Recommendation)
	assert.Nil(t, plan.Decision("ts-999"))

	counts := plan.CountByAction()
	assert.Equal(t, 2, counts[ActionService])
	assert.Equal(t, 0, counts[ActionStandby])
	assert.Equal(t, 1, counts[ActionMaintenance])
}
