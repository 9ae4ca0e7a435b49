package ledger

import (
	"context"
	"database/sql"
	"iter"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/kmrl-ops/induction-cli/internal/model"
)

// SQLiteLedger implements Ledger using modernc.org/sqlite. The single-row
// INSERT is atomic, and the primary key makes duplicate detection part of
// the same statement.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode for concurrent readers during appends.
func NewSQLite(dsn string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "ledger: exec %s", pragma)
		}
	}
	return &SQLiteLedger{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS history_entries (
	id          TEXT PRIMARY KEY,
	date        DATETIME NOT NULL,
	trainset_id TEXT NOT NULL,
	decision    TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	notes       TEXT NOT NULL DEFAULT '',
	supervisor  TEXT NOT NULL,
	recorded_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_history_trainset ON history_entries(trainset_id, date);
CREATE INDEX IF NOT EXISTS idx_history_date ON history_entries(date);
`

func (l *SQLiteLedger) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "ledger: migrate sqlite")
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

func (l *SQLiteLedger) Record(ctx context.Context, entry model.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return eris.Wrap(err, "ledger: record")
	}

	// INSERT OR IGNORE keeps append + duplicate check one atomic statement.
	res, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO history_entries (id, date, trainset_id, decision, outcome, notes, supervisor)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Date.UTC(), entry.TrainsetID, string(entry.Decision),
		string(entry.Outcome), entry.Notes, entry.Supervisor,
	)
	if err != nil {
		return eris.Wrapf(err, "ledger: insert entry %s", entry.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "ledger: rows affected for entry %s", entry.ID)
	}
	if n == 0 {
		return &DuplicateEntryError{EntryID: entry.ID}
	}
	return nil
}

const sqliteSelect = `SELECT id, date, trainset_id, decision, outcome, notes, supervisor FROM history_entries`

func (l *SQLiteLedger) QueryByTrainset(ctx context.Context, trainsetID string) iter.Seq2[model.HistoryEntry, error] {
	return l.query(ctx, sqliteSelect+` WHERE trainset_id = ? ORDER BY date, id`, trainsetID)
}

func (l *SQLiteLedger) QueryByDateRange(ctx context.Context, from, to time.Time) iter.Seq2[model.HistoryEntry, error] {
	return l.query(ctx, sqliteSelect+` WHERE date >= ? AND date <= ? ORDER BY date, id`, from.UTC(), to.UTC())
}

// query returns a lazy sequence; each range re-executes the statement, so
// sequences are restartable and never share a cursor.
func (l *SQLiteLedger) query(ctx context.Context, stmt string, args ...any) iter.Seq2[model.HistoryEntry, error] {
	return func(yield func(model.HistoryEntry, error) bool) {
		rows, err := l.db.QueryContext(ctx, stmt, args...)
		if err != nil {
			yield(model.HistoryEntry{}, eris.Wrap(err, "ledger: query history"))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var entry model.HistoryEntry
			var decision, outcome string
			if err := rows.Scan(&entry.ID, &entry.Date, &entry.TrainsetID, &decision, &outcome, &entry.Notes, &entry.Supervisor); err != nil {
				yield(model.HistoryEntry{}, eris.Wrap(err, "ledger: scan history entry"))
				return
			}
			entry.Decision = model.Action(decision)
			entry.Outcome = model.Outcome(outcome)
			entry.Date = entry.Date.UTC()
			if !yield(entry, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.HistoryEntry{}, eris.Wrap(err, "ledger: iterate history"))
		}
	}
}
