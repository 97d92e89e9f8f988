package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmanzanog/market-snapshot/internal/domain"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/persistence/sqldb/migrations"
	"github.com/pressly/goose/v3"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.PostgresFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "postgres"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

func (d *PostgresDialect) UpsertListing(ctx context.Context, tx *sql.Tx, market string, count int, refreshedAt time.Time) error {
	query := `
		INSERT INTO listings (market, instrument_count, refreshed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (market) DO UPDATE SET
			instrument_count = EXCLUDED.instrument_count,
			refreshed_at = EXCLUDED.refreshed_at
	`
	_, err := tx.ExecContext(ctx, query, market, count, refreshedAt)
	return err
}

func (d *PostgresDialect) InsertInstrument(ctx context.Context, tx *sql.Tx, market string, seq int, i domain.Instrument) error {
	query := `
		INSERT INTO listing_instruments (market, seq, code, name, board)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, market, seq, i.Code, i.Name, i.Market)
	return err
}
