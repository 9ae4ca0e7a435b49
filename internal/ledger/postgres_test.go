package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmrl-ops/induction-cli/internal/model"
)

// newMockPostgresLedger creates a PostgresLedger backed by pgxmock.
func newMockPostgresLedger(t *testing.T) (*PostgresLedger, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresFromPool(mock), mock
}

func TestPostgresLedger_Record(t *testing.T) {
	l, mock := newMockPostgresLedger(t)

	mock.ExpectExec(`INSERT INTO history_entries`).
		WithArgs("e-001", pgxmock.AnyArg(), "ts-001", "service", "successful", "ran full service day", "Rajesh Kumar").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := l.Record(context.Background(), testEntry("e-001", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_Record_Duplicate(t *testing.T) {
	l, mock := newMockPostgresLedger(t)

	mock.ExpectExec(`INSERT INTO history_entries`).
		WithArgs("e-001", pgxmock.AnyArg(), "ts-001", "service", "successful", "ran full service day", "Rajesh Kumar").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "history_entries_pkey"})

	err := l.Record(context.Background(), testEntry("e-001", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	var dup *DuplicateEntryError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "e-001", dup.EntryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_Record_InvalidEntrySkipsDatabase(t *testing.T) {
	l, mock := newMockPostgresLedger(t)

	entry := testEntry("e-001", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	entry.TrainsetID = ""
	assert.Error(t, l.Record(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_QueryByTrainset(t *testing.T) {
	l, mock := newMockPostgresLedger(t)

	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "date", "trainset_id", "decision", "outcome", "notes", "supervisor"}).
		AddRow("e-001", date, "ts-001", "service", "successful", "", "Rajesh Kumar").
		AddRow("e-002", date.AddDate(0, 0, 1), "ts-001", "maintenance", "partial", "brake pads replaced", "Anita Menon")

	mock.ExpectQuery(`SELECT id, date, trainset_id, decision, outcome, notes, supervisor FROM history_entries WHERE trainset_id = \$1 ORDER BY date, id`).
		WithArgs("ts-001").
		WillReturnRows(rows)

	entries, err := Collect(l.QueryByTrainset(context.Background(), "ts-001"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ActionService, entries[0].Decision)
	assert.Equal(t, model.ActionMaintenance, entries[1].Decision)
	assert.Equal(t, model.OutcomePartial, entries[1].Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_QueryByDateRange(t *testing.T) {
	l, mock := newMockPostgresLedger(t)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "date", "trainset_id", "decision", "outcome", "notes", "supervisor"}).
		AddRow("e-001", from.AddDate(0, 0, 9), "ts-001", "standby", "successful", "", "Rajesh Kumar")

	mock.ExpectQuery(`SELECT id, date, trainset_id, decision, outcome, notes, supervisor FROM history_entries WHERE date >= \$1 AND date <= \$2 ORDER BY date, id`).
		WithArgs(from, to).
		WillReturnRows(rows)

	entries, err := Collect(l.QueryByDateRange(context.Background(), from, to))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "e-001", entries[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_Migrate(t *testing.T) {
	l, mock := newMockPostgresLedger(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS history_entries`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, l.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
