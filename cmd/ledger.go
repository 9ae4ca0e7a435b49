package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/kmrl-ops/induction-cli/internal/ledger"
	"github.com/kmrl-ops/induction-cli/internal/resilience"
)

// initLedger opens the configured history ledger backend and applies
// migrations. Postgres connects retry briefly; the database may still be
// coming up when the service starts.
func initLedger(ctx context.Context) (ledger.Ledger, error) {
	var (
		l   ledger.Ledger
		err error
	)
	switch cfg.Ledger.Driver {
	case "sqlite":
		dsn := cfg.Ledger.DatabaseURL
		if dsn == "" {
			dsn = "induction.db"
		}
		l, err = ledger.NewSQLite(dsn)
	case "postgres":
		err = resilience.Retry(ctx, "ledger connect", resilience.DefaultRetryConfig(), func(ctx context.Context) error {
			var cerr error
			l, cerr = ledger.NewPostgres(ctx, cfg.Ledger.DatabaseURL)
			return cerr
		})
	default:
		return nil, eris.Errorf("unsupported ledger driver: %s", cfg.Ledger.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := l.Migrate(ctx); err != nil {
		l.Close() //nolint:errcheck
		return nil, err
	}
	return l, nil
}
