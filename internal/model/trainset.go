package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Status represents the current operational state of a trainset.
type Status string

const (
	StatusActive       Status = "active"
	StatusStandby      Status = "standby"
	StatusMaintenance  Status = "maintenance"
	StatusOutOfService Status = "out-of-service"
)

// Valid reports whether s is a recognized status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusStandby, StatusMaintenance, StatusOutOfService:
		return true
	}
	return false
}

// InShop reports whether the trainset is withdrawn for repair work.
func (s Status) InShop() bool {
	return s == StatusMaintenance || s == StatusOutOfService
}

// BrandingPriority is the contractual priority of a branding wrap.
type BrandingPriority string

const (
	BrandingHigh   BrandingPriority = "high"
	BrandingMedium BrandingPriority = "medium"
	BrandingLow    BrandingPriority = "low"
)

// Valid reports whether p is a recognized branding priority.
func (p BrandingPriority) Valid() bool {
	switch p {
	case BrandingHigh, BrandingMedium, BrandingLow:
		return true
	}
	return false
}

// DetailLevel is the depth of the most recent interior cleaning.
type DetailLevel string

const (
	DetailBasic   DetailLevel = "basic"
	DetailDeep    DetailLevel = "deep"
	DetailPremium DetailLevel = "premium"
)

// Rank orders detail levels from basic (0) to premium (2). Unknown levels
// rank below basic.
func (d DetailLevel) Rank() int {
	switch d {
	case DetailBasic:
		return 0
	case DetailDeep:
		return 1
	case DetailPremium:
		return 2
	}
	return -1
}

// JobCards counts open work orders against a trainset.
type JobCards struct {
	Open    int `json:"open" yaml:"open"`
	Pending int `json:"pending" yaml:"pending"`
	Closed  int `json:"closed" yaml:"closed"`
}

// Branding describes an advertising wrap contract.
type Branding struct {
	Type       string           `json:"type" yaml:"type"`
	Priority   BrandingPriority `json:"priority" yaml:"priority"`
	ExpiryDate time.Time        `json:"expiry_date" yaml:"expiry_date"`
}

// CleaningStatus tracks interior cleaning scheduling.
type CleaningStatus struct {
	LastCleaned   time.Time   `json:"last_cleaned" yaml:"last_cleaned"`
	NextScheduled time.Time   `json:"next_scheduled" yaml:"next_scheduled"`
	DetailLevel   DetailLevel `json:"detail_level" yaml:"detail_level"`
}

// Trainset is a read-only snapshot of one trainset's operational state.
// Snapshots are produced by the maintenance and operations feeds; the
// scheduler never mutates them.
type Trainset struct {
	ID               string         `json:"id" yaml:"id"`
	Number           string         `json:"number" yaml:"number"`
	Name             string         `json:"name" yaml:"name"`
	Status           Status         `json:"status" yaml:"status"`
	Location         string         `json:"location" yaml:"location"`
	LastMaintenance  time.Time      `json:"last_maintenance" yaml:"last_maintenance"`
	NextMaintenance  time.Time      `json:"next_maintenance" yaml:"next_maintenance"`
	Mileage          int            `json:"mileage" yaml:"mileage"`
	FitnessExpiry    time.Time      `json:"fitness_expiry" yaml:"fitness_expiry"`
	JobCards         JobCards       `json:"job_cards" yaml:"job_cards"`
	Branding         Branding       `json:"branding" yaml:"branding"`
	CleaningStatus   CleaningStatus `json:"cleaning_status" yaml:"cleaning_status"`
	StablingPosition string         `json:"stabling_position" yaml:"stabling_position"`
	Availability     int            `json:"availability" yaml:"availability"`
	Issues           []string       `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Validate checks structural invariants of a snapshot. Soft data anomalies
// (implausible dates, stale certificates) are the evaluators' concern; this
// only rejects snapshots that are malformed outright.
func (t Trainset) Validate() error {
	if t.ID == "" {
		return eris.New("trainset: missing id")
	}
	if !t.Status.Valid() {
		return eris.Errorf("trainset %s: unknown status %q", t.ID, t.Status)
	}
	if t.Mileage < 0 {
		return eris.Errorf("trainset %s: negative mileage %d", t.ID, t.Mileage)
	}
	if t.JobCards.Open < 0 || t.JobCards.Pending < 0 || t.JobCards.Closed < 0 {
		return eris.Errorf("trainset %s: negative job card count", t.ID)
	}
	if t.Availability < 0 || t.Availability > 100 {
		return eris.Errorf("trainset %s: availability %d out of range", t.ID, t.Availability)
	}
	if t.Status.InShop() && t.Availability != 0 {
		return eris.Errorf("trainset %s: availability must be 0 while %s", t.ID, t.Status)
	}
	return nil
}

// FleetMeanMileage returns the arithmetic mean mileage across the fleet,
// or 0 for an empty fleet.
func FleetMeanMileage(fleet []Trainset) float64 {
	if len(fleet) == 0 {
		return 0
	}
	total := 0
	for _, ts := range fleet {
		total += ts.Mileage
	}
	return float64(total) / float64(len(fleet))
}
