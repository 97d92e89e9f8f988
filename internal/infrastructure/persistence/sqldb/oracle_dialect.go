package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmanzanog/market-snapshot/internal/domain"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/persistence/sqldb/migrations"
)

type OracleDialect struct{}

func (d *OracleDialect) Name() string { return "oracle" }

func (d *OracleDialect) Migrate(ctx context.Context, db *sql.DB) error {
	// Goose does not support Oracle natively in a way that is easy to cross-compile with go-ora.
	// We read the SQL file and execute it statement by statement.
	content, err := migrations.OracleFS.ReadFile(migrations.OracleInit)
	if err != nil {
		return fmt.Errorf("reading migration file: %w", err)
	}

	// Split statements by '/' which is standard in Oracle scripts
	statements := strings.Split(string(content), "/")

	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		if _, err := db.ExecContext(ctx, stmt); err != nil {
			// ORA-00955: name is already used by an existing object
			if !strings.Contains(err.Error(), "ORA-00955") {
				return fmt.Errorf("migrating: %s: %w", stmt, err)
			}
		}
	}
	return nil
}

func (d *OracleDialect) UpsertListing(ctx context.Context, tx *sql.Tx, market string, count int, refreshedAt time.Time) error {
	query := `MERGE INTO listings l
             USING (SELECT :1 as market_val FROM dual) s
             ON (l.market = s.market_val)
             WHEN MATCHED THEN
               UPDATE SET instrument_count = :2, refreshed_at = :3
             WHEN NOT MATCHED THEN
               INSERT (market, instrument_count, refreshed_at)
               VALUES (:4, :5, :6)`

	_, err := tx.ExecContext(ctx, query,
		market,      // 1 (s.market_val)
		count,       // 2 (UPDATE)
		refreshedAt, // 3 (UPDATE)
		market,      // 4 (INSERT)
		count,       // 5 (INSERT)
		refreshedAt, // 6 (INSERT)
	)
	return err
}

func (d *OracleDialect) InsertInstrument(ctx context.Context, tx *sql.Tx, market string, seq int, i domain.Instrument) error {
	query := `INSERT INTO listing_instruments (market, seq, code, name, board)
             VALUES (:1, :2, :3, :4, :5)`

	_, err := tx.ExecContext(ctx, query, market, seq, i.Code, i.Name, i.Market)
	return err
}
