package model

import "github.com/rotisserie/eris"

// Weather is the forecast bucket applied to a planning run.
type Weather string

const (
	WeatherNormal  Weather = "normal"
	WeatherRain    Weather = "rain"
	WeatherExtreme Weather = "extreme"
)

// Demand is the expected passenger-demand bucket.
type Demand string

const (
	DemandLow    Demand = "low"
	DemandNormal Demand = "normal"
	DemandPeak   Demand = "peak"
)

// Evaluator names used as weight keys. Kept here so config validation and
// the planner agree on the set.
const (
	EvaluatorFitness  = "fitness"
	EvaluatorJobCards = "jobcards"
	EvaluatorBranding = "branding"
	EvaluatorMileage  = "mileage"
	EvaluatorCleaning = "cleaning"
	EvaluatorStabling = "stabling"
)

// EvaluatorNames lists every evaluator weight key in composition order.
var EvaluatorNames = []string{
	EvaluatorFitness,
	EvaluatorJobCards,
	EvaluatorBranding,
	EvaluatorMileage,
	EvaluatorCleaning,
	EvaluatorStabling,
}

// SimulationConfig is the immutable parameter set for one planning or
// simulation run. The same struct drives live plan generation; "simulation"
// only means the knobs were perturbed from the active defaults.
type SimulationConfig struct {
	ServiceSlots        int     `json:"service_slots" yaml:"service_slots" mapstructure:"service_slots"`
	MaintenanceCapacity int     `json:"maintenance_capacity" yaml:"maintenance_capacity" mapstructure:"maintenance_capacity"`
	CleaningSlots       int     `json:"cleaning_slots" yaml:"cleaning_slots" mapstructure:"cleaning_slots"`
	EmergencyReserve    int     `json:"emergency_reserve" yaml:"emergency_reserve" mapstructure:"emergency_reserve"`
	BrandingPriority    bool    `json:"branding_priority" yaml:"branding_priority" mapstructure:"branding_priority"`
	Weather             Weather `json:"weather" yaml:"weather" mapstructure:"weather"`
	PassengerDemand     Demand  `json:"passenger_demand" yaml:"passenger_demand" mapstructure:"passenger_demand"`
	// MaintenanceUrgency is the open-work threshold (0-100) above which a
	// serviceable trainset is pushed toward maintenance anyway.
	MaintenanceUrgency int `json:"maintenance_urgency" yaml:"maintenance_urgency" mapstructure:"maintenance_urgency"`
	// Weights maps evaluator name to relative weight. Missing or empty
	// means equal weighting; Normalize fills the gaps.
	Weights map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty" mapstructure:"weights"`
}

// Validate checks knob ranges per the planning contract.
func (c SimulationConfig) Validate() error {
	if c.ServiceSlots < 0 {
		return eris.Errorf("config: service slots %d must be >= 0", c.ServiceSlots)
	}
	if c.MaintenanceCapacity < 1 {
		return eris.Errorf("config: maintenance capacity %d must be >= 1", c.MaintenanceCapacity)
	}
	if c.CleaningSlots < 1 {
		return eris.Errorf("config: cleaning slots %d must be >= 1", c.CleaningSlots)
	}
	if c.EmergencyReserve < 0 {
		return eris.Errorf("config: emergency reserve %d must be >= 0", c.EmergencyReserve)
	}
	if c.MaintenanceUrgency < 0 || c.MaintenanceUrgency > 100 {
		return eris.Errorf("config: maintenance urgency %d out of range 0-100", c.MaintenanceUrgency)
	}
	switch c.Weather {
	case WeatherNormal, WeatherRain, WeatherExtreme:
	default:
		return eris.Errorf("config: unknown weather %q", c.Weather)
	}
	switch c.PassengerDemand {
	case DemandLow, DemandNormal, DemandPeak:
	default:
		return eris.Errorf("config: unknown passenger demand %q", c.PassengerDemand)
	}
	for name, w := range c.Weights {
		if w < 0 {
			return eris.Errorf("config: negative weight %v for evaluator %q", w, name)
		}
	}
	return nil
}

// Normalize returns a copy with every evaluator weight populated. Absent
// evaluators default to 1.0 (equal weighting); zero-valued entries are kept,
// which disables that evaluator's contribution.
func (c SimulationConfig) Normalize() SimulationConfig {
	weights := make(map[string]float64, len(EvaluatorNames))
	for _, name := range EvaluatorNames {
		weights[name] = 1.0
	}
	for name, w := range c.Weights {
		weights[name] = w
	}
	c.Weights = weights
	return c
}

// Weight returns the effective weight for an evaluator on a possibly
// un-normalized config.
func (c SimulationConfig) Weight(name string) float64 {
	if c.Weights == nil {
		return 1.0
	}
	w, ok := c.Weights[name]
	if !ok {
		return 1.0
	}
	return w
}
