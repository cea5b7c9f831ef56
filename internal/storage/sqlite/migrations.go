package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database.
// These run on startup to ensure tables exist.
//
// expenses/shares hold the live ledger; settled_expenses/settled_shares
// hold the archive, keyed by settlements. Archived rows get fresh ids
// in settled_expenses, so settled_shares reference those, not the
// original live ids.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS expenses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    cost REAL NOT NULL,
    date TEXT NOT NULL,
    payer_id INTEGER NOT NULL,
    FOREIGN KEY (payer_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS shares (
    expense_id INTEGER NOT NULL,
    debtor_id INTEGER NOT NULL,
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE,
    FOREIGN KEY (debtor_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS settlements (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    settled_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settled_expenses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    cost REAL NOT NULL,
    date TEXT NOT NULL,
    payer_id INTEGER NOT NULL,
    settlement_id INTEGER NOT NULL,
    FOREIGN KEY (payer_id) REFERENCES users(id),
    FOREIGN KEY (settlement_id) REFERENCES settlements(id)
);

CREATE TABLE IF NOT EXISTS settled_shares (
    expense_id INTEGER NOT NULL,
    debtor_id INTEGER NOT NULL,
    FOREIGN KEY (expense_id) REFERENCES settled_expenses(id),
    FOREIGN KEY (debtor_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_shares_expense_id ON shares(expense_id);
CREATE INDEX IF NOT EXISTS idx_settled_expenses_settlement_id ON settled_expenses(settlement_id);
CREATE INDEX IF NOT EXISTS idx_settled_shares_expense_id ON settled_shares(expense_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
