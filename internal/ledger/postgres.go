package ledger

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/kmrl-ops/induction-cli/internal/db"
	"github.com/kmrl-ops/induction-cli/internal/model"
)

// pgUniqueViolation is the SQLSTATE for a unique constraint violation.
const pgUniqueViolation = "23505"

// PostgresLedger implements Ledger on a pgx connection pool.
type PostgresLedger struct {
	pool db.Pool
}

// NewPostgres creates a PostgresLedger with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresLedger, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: parse postgres config")
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: connect postgres")
	}
	return &PostgresLedger{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Tests use this with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS history_entries (
	id          TEXT PRIMARY KEY,
	date        TIMESTAMPTZ NOT NULL,
	trainset_id TEXT NOT NULL,
	decision    TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	notes       TEXT NOT NULL DEFAULT '',
	supervisor  TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_history_trainset ON history_entries(trainset_id, date);
CREATE INDEX IF NOT EXISTS idx_history_date ON history_entries(date);
`

func (l *PostgresLedger) Migrate(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "ledger: migrate postgres")
}

func (l *PostgresLedger) Close() error {
	l.pool.Close()
	return nil
}

func (l *PostgresLedger) Record(ctx context.Context, entry model.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return eris.Wrap(err, "ledger: record")
	}

	_, err := l.pool.Exec(ctx,
		`INSERT INTO history_entries (id, date, trainset_id, decision, outcome, notes, supervisor)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Date.UTC(), entry.TrainsetID, string(entry.Decision),
		string(entry.Outcome), entry.Notes, entry.Supervisor,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return &DuplicateEntryError{EntryID: entry.ID}
		}
		return eris.Wrapf(err, "ledger: insert entry %s", entry.ID)
	}
	return nil
}

const postgresSelect = `SELECT id, date, trainset_id, decision, outcome, notes, supervisor FROM history_entries`

func (l *PostgresLedger) QueryByTrainset(ctx context.Context, trainsetID string) iter.Seq2[model.HistoryEntry, error] {
	return l.query(ctx, postgresSelect+` WHERE trainset_id = $1 ORDER BY date, id`, trainsetID)
}

func (l *PostgresLedger) QueryByDateRange(ctx context.Context, from, to time.Time) iter.Seq2[model.HistoryEntry, error] {
	return l.query(ctx, postgresSelect+` WHERE date >= $1 AND date <= $2 ORDER BY date, id`, from.UTC(), to.UTC())
}

func (l *PostgresLedger) query(ctx context.Context, stmt string, args ...any) iter.Seq2[model.HistoryEntry, error] {
	return func(yield func(model.HistoryEntry, error) bool) {
		rows, err := l.pool.Query(ctx, stmt, args...)
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
