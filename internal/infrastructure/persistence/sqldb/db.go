package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Drivers registered under "pgx" and "oracle".
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/sijms/go-ora/v2"
)

type DB struct {
	*sql.DB
	Dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{
		DB:      db,
		Dialect: dialect,
	}
}

// Open connects to a "postgres" or "oracle" database, checks the connection
// and runs the dialect's migrations.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var (
		driverName string
		dialect    Dialect
	)
	switch driver {
	case "postgres":
		driverName, dialect = "pgx", &PostgresDialect{}
	case "oracle":
		driverName, dialect = "oracle", &OracleDialect{}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	rawDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	rawDB.SetMaxOpenConns(10)
	rawDB.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := rawDB.PingContext(pingCtx); err != nil {
		_ = rawDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := dialect.Migrate(ctx, rawDB); err != nil {
		_ = rawDB.Close()
		return nil, fmt.Errorf("migrate %s: %w", driver, err)
	}

	return New(rawDB, dialect), nil
}

func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
