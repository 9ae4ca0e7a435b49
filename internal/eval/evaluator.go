// Package eval implements the per-factor constraint evaluators that feed the
// induction planner. Each evaluator is a pure function over a single trainset
// snapshot plus the run configuration; fleet-level context (mean mileage, the
// run's reference time) is passed in explicitly so evaluators stay
// deterministic and independently testable.
package eval

import (
	"math"
	"time"

	"github.com/kmrl-ops/induction-cli/internal/model"
)

// FleetContext carries the fleet-wide values an evaluator may need. It is
// computed once per planning run.
type FleetContext struct {
	// Now is the run's reference time. All date arithmetic uses this
	// instead of the wall clock so identical inputs score identically.
	Now time.Time
	// MeanMileage is the fleet's arithmetic mean mileage in kilometers.
	MeanMileage float64
}

// Evaluator scores one operational factor for one trainset.
type Evaluator interface {
	// Name returns the evaluator's weight key (see model.EvaluatorNames).
	Name() string
	// Evaluate returns the factor's contribution, reasoning, and any hard
	// vetoes. It must not retain or mutate the snapshot.
	Evaluate(ts model.Trainset, cfg model.SimulationConfig, fleet FleetContext) model.EvaluationResult
}

// Tuning holds the evaluator thresholds that come from application config
// rather than from the per-run simulation knobs.
type Tuning struct {
	// FitnessRenewalWindowDays is the soft-penalty window before
	// certificate expiry.
	FitnessRenewalWindowDays int `yaml:"fitness_renewal_window_days" mapstructure:"fitness_renewal_window_days"`
	// MileageDeviationThreshold is the tolerated fractional deviation from
	// fleet mean mileage before balancing penalties kick in.
	MileageDeviationThreshold float64 `yaml:"mileage_deviation_threshold" mapstructure:"mileage_deviation_threshold"`
	// CleaningFreshWindowHours is how recently a cleaning must have
	// happened to earn the freshly-cleaned bonus.
	CleaningFreshWindowHours int `yaml:"cleaning_fresh_window_hours" mapstructure:"cleaning_fresh_window_hours"`
	// UnpoweredBays lists stabling positions without shore power; a
	// trainset stabled there cannot complete overnight service prep.
	UnpoweredBays []string `yaml:"unpowered_bays" mapstructure:"unpowered_bays"`
	// BrandingExpiryWindowDays is the window before contract expiry in
	// which high-priority branding earns an exposure push.
	BrandingExpiryWindowDays int `yaml:"branding_expiry_window_days" mapstructure:"branding_expiry_window_days"`
}

// DefaultTuning returns the thresholds used when config leaves them unset.
func DefaultTuning() Tuning {
	return Tuning{
		FitnessRenewalWindowDays:  30,
		MileageDeviationThreshold: 0.15,
		CleaningFreshWindowHours:  48,
		BrandingExpiryWindowDays:  45,
	}
}

// normalize fills zero-valued tuning fields with defaults so partially
// specified config files behave sanely.
func (t Tuning) normalize() Tuning {
	def := DefaultTuning()
	if t.FitnessRenewalWindowDays <= 0 {
		t.FitnessRenewalWindowDays = def.FitnessRenewalWindowDays
	}
	if t.MileageDeviationThreshold <= 0 {
		t.MileageDeviationThreshold = def.MileageDeviationThreshold
	}
	if t.CleaningFreshWindowHours <= 0 {
		t.CleaningFreshWindowHours = def.CleaningFreshWindowHours
	}
	if t.BrandingExpiryWindowDays <= 0 {
		t.BrandingExpiryWindowDays = def.BrandingExpiryWindowDays
	}
	return t
}

// All returns the full evaluator set in composition order.
func All(tuning Tuning) []Evaluator {
	tuning = tuning.normalize()
	return []Evaluator{
		FitnessEvaluator{RenewalWindowDays: tuning.FitnessRenewalWindowDays},
		JobCardEvaluator{},
		BrandingEvaluator{ExpiryWindowDays: tuning.BrandingExpiryWindowDays},
		MileageEvaluator{DeviationThreshold: tuning.MileageDeviationThreshold},
		CleaningEvaluator{FreshWindowHours: tuning.CleaningFreshWindowHours},
		StablingEvaluator{UnpoweredBays: tuning.UnpoweredBays},
	}
}

// daysUntil returns whole days from now until t, negative for any t in the
// past. The division floors rather than truncates so a deadline missed by
// hours still counts as missed.
func daysUntil(now, t time.Time) int {
	return int(math.Floor(t.Sub(now).Hours() / 24))
}
