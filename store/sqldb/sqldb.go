/*
Package sqldb provides a database/sql implementation of household.Store.

PURPOSE:
  Persists rooms, cleaning assignments, bills and cost entries in SQLite
  (default, mattn/go-sqlite3) or PostgreSQL (lib/pq). Both dialects share
  the queries; only the schema types and placeholders differ.

INTERFACES IMPLEMENTED:
  household.Store: rooms, assignments, bills, cost entries, transactions

EXISTS-OR-INSERT:
  The engine's idempotency rests on unique constraints, not on reads:

    assignments:  UNIQUE(room_id, period_id)
    bills:        PRIMARY KEY(id)
    cost_entries: UNIQUE(cost_key)

  Inserts use INSERT ... ON CONFLICT DO NOTHING RETURNING id. No returned
  row means the record already existed; the stored one is then read back.
  Two racing writers therefore produce one record and one no-op.

KEY TABLES:
  rooms:        room directory (managed through the API)
  assignments:  one row per (room, period), four task flags
  bills:        one row per month, with the room set it was split between
  cost_entries: one row per (bill, room)

CONCURRENCY:
  SQLite is opened with a single connection (":memory:" databases are per
  connection, and SQLite has one writer anyway). PostgreSQL uses the pool
  settings of the caller.

USAGE:
  store, err := sqldb.Open(sqldb.SQLite, "./data/household.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - household/store.go: Interface definitions
  - household/store/memory.go: In-memory implementation for testing
*/
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/flatmate/household-engine/household"
)

// Dialect names a supported database/sql driver.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// ParseDialect accepts "sqlite3", "sqlite" and "postgres".
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "sqlite3", "sqlite", "":
		return SQLite, nil
	case "postgres", "postgresql":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", s)
	}
}

// Store implements household.Store on a *sql.DB.
type Store struct {
	*queries
	db *sql.DB
}

var _ household.Store = (*Store)(nil)

// Open opens dsn with the dialect's driver and migrates the schema.
// Use ":memory:" for an in-memory SQLite database.
func Open(d Dialect, dsn string) (*Store, error) {
	if d == SQLite && !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}
	db, err := sql.Open(string(d), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if d == SQLite {
		db.SetMaxOpenConns(1)
	}

	s, err := New(db, d)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and migrates the schema.
func New(db *sql.DB, d Dialect) (*Store, error) {
	s := &Store{queries: &queries{q: db, d: d}, db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithBillingTx executes fn within a database transaction.
func (s *Store) WithBillingTx(ctx context.Context, fn func(household.BillingStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&queries{q: tx, d: s.d}); err != nil {
		return err
	}
	return tx.Commit()
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"cost_entries", "bills", "assignments", "rooms"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema(s.d))
	return err
}

func schema(d Dialect) string {
	id, money, boolean := "INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT", "BOOLEAN"
	if d == Postgres {
		id, money = "BIGSERIAL PRIMARY KEY", "NUMERIC"
	}

	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		base_price %[2]s NOT NULL,
		multiplier %[2]s NOT NULL,
		purchase_multiplier %[2]s NOT NULL
	);

	-- At most one turn per (room, period)
	CREATE TABLE IF NOT EXISTS assignments (
		id %[1]s,
		room_id TEXT NOT NULL,
		period_id TEXT NOT NULL,
		kitchen %[3]s NOT NULL DEFAULT FALSE,
		bathroom %[3]s NOT NULL DEFAULT FALSE,
		toilet %[3]s NOT NULL DEFAULT FALSE,
		living_room %[3]s NOT NULL DEFAULT FALSE,
		UNIQUE(room_id, period_id)
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_period
		ON assignments(period_id DESC, id DESC);

	CREATE TABLE IF NOT EXISTS bills (
		id TEXT PRIMARY KEY,
		media %[2]s NOT NULL,
		energy %[2]s NOT NULL,
		internet %[2]s NOT NULL,
		purchases %[2]s NOT NULL,
		-- JSON array of the room IDs the bill was split between
		room_ids TEXT NOT NULL DEFAULT '[]'
	);

	-- Exactly one entry per (bill, room); cost_key = bill_id || '_' || room_id
	CREATE TABLE IF NOT EXISTS cost_entries (
		id %[1]s,
		cost_key TEXT NOT NULL UNIQUE,
		bill_id TEXT NOT NULL REFERENCES bills(id),
		room_id TEXT NOT NULL,
		price %[2]s NOT NULL,
		accepted %[3]s NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_cost_entries_room
		ON cost_entries(room_id);
	CREATE INDEX IF NOT EXISTS idx_cost_entries_bill
		ON cost_entries(bill_id);
	`, id, money, boolean)
}

// =============================================================================
// QUERIES - shared by the store and its transactions
// =============================================================================

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	q querier
	d Dialect
}

func (qs *queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return qs.q.ExecContext(ctx, qs.rebind(query), args...)
}

func (qs *queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return qs.q.QueryContext(ctx, qs.rebind(query), args...)
}

func (qs *queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return qs.q.QueryRowContext(ctx, qs.rebind(query), args...)
}

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL.
func (qs *queries) rebind(query string) string {
	if qs.d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// =============================================================================
// UTILITIES
// =============================================================================

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func rowsAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
