// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/fairshare/fairshare/internal/models"
)

// Sentinel errors shared by all Store implementations. Callers match
// them with errors.Is; anything else coming out of a Store is a
// backend failure wrapped in *Error.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrExpenseNotFound    = errors.New("expense not found")
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrDuplicateUser      = errors.New("user already exists")
)

// Error wraps a backend failure (I/O, constraint, driver) with the
// operation that hit it. It is the fatal category: the ledger never
// retries these.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Store defines the persistence operations the ledger is built on.
// This abstraction allows swapping storage backends (SQLite,
// PostgreSQL) without changing the ledger layer.
//
// Mutating operations that touch more than one table (CreateExpense,
// UpdateExpense, Settle) must be atomic: either every row lands or the
// store is left untouched. Referential checks on user and expense ids
// happen inside the same transaction as the writes.
type Store interface {
	// CreateUser inserts a user and returns the assigned id.
	// Returns ErrDuplicateUser if the name is taken.
	CreateUser(ctx context.Context, name string) (int64, error)

	// RenameUser changes a user's name in place; the id is untouched.
	// Returns ErrUserNotFound if oldName does not exist and
	// ErrDuplicateUser if newName is taken.
	RenameUser(ctx context.Context, oldName, newName string) error

	// ListUsers returns all users ordered by name.
	ListUsers(ctx context.Context) ([]models.User, error)

	// UserIDByName resolves a name to an id.
	// Returns ErrUserNotFound if the name does not exist.
	UserIDByName(ctx context.Context, name string) (int64, error)

	// UserNames returns the id-to-name mapping for all users.
	UserNames(ctx context.Context) (map[int64]string, error)

	// CreateExpense inserts an expense and one share row per debtor,
	// preserving duplicate debtors. Populates e.ID. Returns
	// ErrUserNotFound if the payer or any debtor id does not exist,
	// with nothing written.
	CreateExpense(ctx context.Context, e *models.Expense) error

	// UpdateExpense replaces the scalar fields of the expense e.ID and
	// its entire share set (delete all, insert the new list). Returns
	// ErrExpenseNotFound or ErrUserNotFound with nothing written.
	UpdateExpense(ctx context.Context, e *models.Expense) error

	// GetExpense retrieves a live expense with its debtors.
	// Returns ErrExpenseNotFound if the id does not exist.
	GetExpense(ctx context.Context, id int64) (*models.Expense, error)

	// ListExpenses returns all live expenses with their debtors,
	// ordered by date ascending, then id ascending.
	ListExpenses(ctx context.Context) ([]models.Expense, error)

	// Debtors returns the debtor ids for an expense, duplicates
	// included. An unknown id yields an empty slice, not an error.
	Debtors(ctx context.Context, expenseID int64) ([]int64, error)

	// Settle atomically archives every live expense and its shares
	// under a new settlement stamped with settledAt, deletes them from
	// the live tables, and returns the settlement id.
	Settle(ctx context.Context, settledAt string) (int64, error)

	// ListSettlements returns all settlement events, newest first.
	ListSettlements(ctx context.Context) ([]models.Settlement, error)

	// SettledExpenses returns the archived expenses of one settlement,
	// with their debtors, ordered by date then id. Returns
	// ErrSettlementNotFound if the settlement id does not exist.
	SettledExpenses(ctx context.Context, settlementID int64) ([]models.Expense, error)

	// Close releases any resources held by the store.
	Close() error
}
