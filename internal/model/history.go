package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Outcome records how an executed induction decision worked out in service.
type Outcome string

const (
	OutcomeSuccessful Outcome = "successful"
	OutcomePartial    Outcome = "partial"
	OutcomeFailed     Outcome = "failed"
)

// Valid reports whether o is a recognized outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccessful, OutcomePartial, OutcomeFailed:
		return true
	}
	return false
}

// HistoryEntry is one append-only audit record: what was decided for a
// trainset on a date, and what actually happened. Entries are never edited
// or deleted once committed.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	TrainsetID string    `json:"trainset_id"`
	Decision   Action    `json:"decision"`
	Outcome    Outcome   `json:"outcome"`
	Notes      string    `json:"notes,omitempty"`
	Supervisor string    `json:"supervisor"`
}

// Validate checks an entry before it is committed to the ledger.
func (e HistoryEntry) Validate() error {
	if e.ID == "" {
		return eris.New("history: missing entry id")
	}
	if e.TrainsetID == "" {
		return eris.Errorf("history %s: missing trainset id", e.ID)
	}
	if e.Date.IsZero() {
		return eris.Errorf("history %s: missing date", e.ID)
	}
	if !e.Decision.Valid() {
		return eris.Errorf("history %s: unknown decision %q", e.ID, e.Decision)
	}
	if !e.Outcome.Valid() {
		return eris.Errorf("history %s: unknown outcome %q", e.ID, e.Outcome)
	}
	return nil
}
