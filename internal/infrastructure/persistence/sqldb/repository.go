package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmanzanog/market-snapshot/internal/domain"
)

// ListingRepository stores one listing per market, rows numbered in listing
// order so FindListing returns them exactly as they were fetched.
type ListingRepository struct {
	db  *DB
	now func() time.Time
}

func NewListingRepository(db *DB) *ListingRepository {
	return &ListingRepository{db: db, now: time.Now}
}

func (r *ListingRepository) Migrate(ctx context.Context) error {
	return r.db.Dialect.Migrate(ctx, r.db.DB)
}

func (r *ListingRepository) ReplaceListing(ctx context.Context, market string, instruments []domain.Instrument) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		// 1. Upsert the listing header
		if err := r.db.Dialect.UpsertListing(ctx, tx, market, len(instruments), r.now().UTC()); err != nil {
			slog.Error("Failed to save listing", "market", market, "error", err)
			return fmt.Errorf("upsert listing: %w", err)
		}

		// 2. Drop the previous rows
		if _, err := tx.ExecContext(ctx, r.rebind("DELETE FROM listing_instruments WHERE market = $1"), market); err != nil {
			return fmt.Errorf("failed to delete listing rows: %w", err)
		}

		// 3. Insert rows in listing order
		for seq, inst := range instruments {
			if err := r.db.Dialect.InsertInstrument(ctx, tx, market, seq, inst); err != nil {
				slog.Error("Failed to save instrument", "market", market, "code", inst.Code, "error", err)
				return fmt.Errorf("insert instrument %s: %w", inst.Code, err)
			}
		}
		return nil
	})
}

func (r *ListingRepository) FindListing(ctx context.Context, market string) ([]domain.Instrument, error) {
	var count int
	err := r.db.QueryRowContext(ctx, r.rebind("SELECT instrument_count FROM listings WHERE market = $1"), market).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("Listing not found", "market", market)
		return nil, fmt.Errorf("listing for %s: %w", market, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing: %w", err)
	}

	query := r.rebind(`
        SELECT code, name, board
        FROM listing_instruments
        WHERE market = $1
        ORDER BY seq
    `)

	rows, err := r.db.QueryContext(ctx, query, market)
	if err != nil {
		slog.Error("Failed to find listing", "market", market, "error", err)
		return nil, fmt.Errorf("querying listing rows: %w", err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			slog.Error("Failed to close rows", "error", err)
		}
	}(rows)

	instruments := make([]domain.Instrument, 0, count)
	for rows.Next() {
		var code, name string
		// Oracle stores '' as NULL.
		var board sql.NullString
		if err := rows.Scan(&code, &name, &board); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		instruments = append(instruments, domain.NewInstrument(code, name, board.String))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return instruments, nil
}

func (r *ListingRepository) rebind(query string) string {
	if r.db.Dialect.Name() == "oracle" {
		for i := 1; i <= 10; i++ {
			query = strings.ReplaceAll(query, fmt.Sprintf("$%d", i), fmt.Sprintf(":%d", i))
		}
	}
	return query
}
