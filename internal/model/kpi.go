package model

import "math"

// KPISummary is the fleet-overview block shown on the operations dashboard.
// All figures derive from the current snapshot; nothing here is persisted.
type KPISummary struct {
	FleetSize       int     `json:"fleet_size"`
	ActiveCount     int     `json:"active_count"`
	StandbyCount    int     `json:"standby_count"`
	InShopCount     int     `json:"in_shop_count"`
	Availability    float64 `json:"availability"`
	OpenJobCards    int     `json:"open_job_cards"`
	PendingJobCards int     `json:"pending_job_cards"`
	// MaintenanceEfficiency is the closed share of all job cards ever
	// raised, as a percentage.
	MaintenanceEfficiency float64 `json:"maintenance_efficiency"`
}

// ComputeKPIs summarizes a fleet snapshot.
func ComputeKPIs(fleet []Trainset) KPISummary {
	var s KPISummary
	s.FleetSize = len(fleet)
	if len(fleet) == 0 {
		return s
	}

	availTotal := 0
	closed, total := 0, 0
	for _, ts := range fleet {
		switch ts.Status {
		case StatusActive:
			s.ActiveCount++
		case StatusStandby:
			s.StandbyCount++
		case StatusMaintenance, StatusOutOfService:
			s.InShopCount++
		}
		availTotal += ts.Availability
		s.OpenJobCards += ts.JobCards.Open
		s.PendingJobCards += ts.JobCards.Pending
		closed += ts.JobCards.Closed
		total += ts.JobCards.Open + ts.JobCards.Pending + ts.JobCards.Closed
	}

	s.Availability = round1(float64(availTotal) / float64(len(fleet)))
	if total > 0 {
		s.MaintenanceEfficiency = round1(float64(closed) / float64(total) * 100)
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
