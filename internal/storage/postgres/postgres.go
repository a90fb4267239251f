// Package postgres provides a PostgreSQL-backed storage.Store using pgx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mmynk/shopcredit/internal/storage/sqldb"
)

const uniqueViolation = "23505"

// Dialect adapts sqldb to PostgreSQL.
type Dialect struct {
	sqldb.DollarBinds
}

func (Dialect) Name() string { return "postgres" }

func (Dialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// New connects to dsn and runs migrations.
func New(ctx context.Context, dsn string) (*sqldb.Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := sqldb.New(db, Dialect{})
	if err := store.Migrate(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}
