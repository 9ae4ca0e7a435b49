// Package ledger implements the append-only decision history: every executed
// induction decision and its realized outcome, recorded once and never
// edited. Neither backend defines an UPDATE or DELETE statement.
package ledger

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/kmrl-ops/induction-cli/internal/model"
)

// DuplicateEntryError reports an append collision on an entry id. The caller
// decides whether to retry with a new id.
type DuplicateEntryError struct {
	EntryID string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("history entry %s already recorded", e.EntryID)
}

// Ledger is the append-only decision history. Query sequences are lazy and
// chronological; each range over a returned sequence re-runs the underlying
// query, so sequences are restartable and share no cursor state.
type Ledger interface {
	// Record appends one entry atomically. A second append with the same
	// id fails with DuplicateEntryError.
	Record(ctx context.Context, entry model.HistoryEntry) error
	// QueryByTrainset yields all entries for a trainset in chronological
	// order.
	QueryByTrainset(ctx context.Context, trainsetID string) iter.Seq2[model.HistoryEntry, error]
	// QueryByDateRange yields entries with from <= date <= to in
	// chronological order.
	QueryByDateRange(ctx context.Context, from, to time.Time) iter.Seq2[model.HistoryEntry, error]

	Migrate(ctx context.Context) error
	Close() error
}

// Collect drains a query sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[model.HistoryEntry, error]) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	for entry, err := range seq {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
