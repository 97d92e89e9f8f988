package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmanzanog/market-snapshot/internal/domain"
)

type Dialect interface {
	Name() string
	Migrate(ctx context.Context, db *sql.DB) error
	UpsertListing(ctx context.Context, tx *sql.Tx, market string, count int, refreshedAt time.Time) error
	InsertInstrument(ctx context.Context, tx *sql.Tx, market string, seq int, i domain.Instrument) error
}
