// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface. It is wire-compatible with the sqlite
// driver: same tables, same semantics, Postgres types and placeholders.
package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // Postgres driver

	"github.com/fairshare/fairshare/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// schema is applied on startup to ensure tables exist. Share tables
// carry a serial id purely so insertion order can be reproduced when
// reading debtors back.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS expenses (
    id BIGSERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    cost DOUBLE PRECISION NOT NULL,
    date TEXT NOT NULL,
    payer_id BIGINT NOT NULL REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS shares (
    id BIGSERIAL PRIMARY KEY,
    expense_id BIGINT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
    debtor_id BIGINT NOT NULL REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS settlements (
    id BIGSERIAL PRIMARY KEY,
    settled_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settled_expenses (
    id BIGSERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    cost DOUBLE PRECISION NOT NULL,
    date TEXT NOT NULL,
    payer_id BIGINT NOT NULL REFERENCES users(id),
    settlement_id BIGINT NOT NULL REFERENCES settlements(id)
);

CREATE TABLE IF NOT EXISTS settled_shares (
    id BIGSERIAL PRIMARY KEY,
    expense_id BIGINT NOT NULL REFERENCES settled_expenses(id),
    debtor_id BIGINT NOT NULL REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_shares_expense_id ON shares(expense_id);
CREATE INDEX IF NOT EXISTS idx_settled_expenses_settlement_id ON settled_expenses(settlement_id);
CREATE INDEX IF NOT EXISTS idx_settled_shares_expense_id ON settled_shares(expense_id);
`

// New connects to the database at the given DSN (DATABASE_URL form)
// and runs migrations.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database is not reachable: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// storeErr wraps a backend failure in the storage error category.
func storeErr(op string, err error) error {
	return &storage.Error{Op: op, Err: err}
}
