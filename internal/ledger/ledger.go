// Package ledger implements the shared expense ledger: user
// registration, expense bookkeeping, net balance computation and
// settlement. It validates input eagerly, resolves names to ids and
// delegates persistence to a storage.Store, so a single invalid field
// aborts an operation before anything is written.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/fairshare/fairshare/internal/calculator"
	"github.com/fairshare/fairshare/internal/models"
	"github.com/fairshare/fairshare/internal/storage"
	"github.com/fairshare/fairshare/internal/validate"
)

// ErrNoDebtors is returned when an expense is submitted without any
// debtors. Every expense needs at least one share; an empty split
// would divide by zero.
var ErrNoDebtors = errors.New("expense needs at least one debtor")

// Ledger is the service facade over a storage.Store.
type Ledger struct {
	store storage.Store
	now   func() time.Time
}

// New creates a Ledger with the given storage backend.
func New(store storage.Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// CreateUser validates and registers a new user, returning its id.
func (l *Ledger) CreateUser(ctx context.Context, name string) (int64, error) {
	name, err := validate.Username(name)
	if err != nil {
		return 0, err
	}
	id, err := l.store.CreateUser(ctx, name)
	if err != nil {
		return 0, err
	}
	slog.Info("user created", "user_id", id, "name", name)
	return id, nil
}

// RenameUser validates the new name and renames the user in place.
func (l *Ledger) RenameUser(ctx context.Context, oldName, newName string) error {
	newName, err := validate.Username(newName)
	if err != nil {
		return err
	}
	if err := l.store.RenameUser(ctx, oldName, newName); err != nil {
		return err
	}
	slog.Info("user renamed", "old_name", oldName, "new_name", newName)
	return nil
}

// ListUsers returns all users ordered by name.
func (l *Ledger) ListUsers(ctx context.Context) ([]models.User, error) {
	return l.store.ListUsers(ctx)
}

// AddExpense validates all fields, resolves the payer and debtors by
// name, and records the expense. Nothing is written unless every field
// and every reference checks out.
func (l *Ledger) AddExpense(ctx context.Context, title, cost, date, payer string, debtors []string) (int64, error) {
	e, err := l.buildExpense(ctx, title, cost, date, payer, debtors)
	if err != nil {
		return 0, err
	}
	if err := l.store.CreateExpense(ctx, e); err != nil {
		return 0, err
	}
	slog.Info("expense added",
		"expense_id", e.ID,
		"title", e.Title,
		"cost", e.Cost,
		"date", e.Date,
		"payer", payer,
		"debtors", len(e.DebtorIDs),
	)
	return e.ID, nil
}

// UpdateExpense validates all fields like AddExpense and replaces the
// expense's scalar fields and entire debtor list.
func (l *Ledger) UpdateExpense(ctx context.Context, id int64, title, cost, date, payer string, debtors []string) error {
	e, err := l.buildExpense(ctx, title, cost, date, payer, debtors)
	if err != nil {
		return err
	}
	e.ID = id
	if err := l.store.UpdateExpense(ctx, e); err != nil {
		return err
	}
	slog.Info("expense updated", "expense_id", id, "title", e.Title, "cost", e.Cost)
	return nil
}

// GetExpense returns one live expense with names resolved.
func (l *Ledger) GetExpense(ctx context.Context, id int64) (models.ExpenseDetail, error) {
	e, err := l.store.GetExpense(ctx, id)
	if err != nil {
		return models.ExpenseDetail{}, err
	}
	names, err := l.store.UserNames(ctx)
	if err != nil {
		return models.ExpenseDetail{}, err
	}
	return resolveExpense(*e, names), nil
}

// ListExpenses returns all live expenses with names resolved, ordered
// by date ascending then id.
func (l *Ledger) ListExpenses(ctx context.Context) ([]models.ExpenseDetail, error) {
	expenses, err := l.store.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	return l.resolveExpenses(ctx, expenses)
}

// Debtors returns the debtor names for an expense, duplicates
// included. An unknown expense id yields an empty list, not an error.
func (l *Ledger) Debtors(ctx context.Context, expenseID int64) ([]string, error) {
	ids, err := l.store.Debtors(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	names, err := l.store.UserNames(ctx)
	if err != nil {
		return nil, err
	}
	debtors := make([]string, 0, len(ids))
	for _, id := range ids {
		debtors = append(debtors, names[id])
	}
	return debtors, nil
}

// Balances computes the netted balance sheet for the live ledger:
// who owes whom how much, one direction per pair, zero pairs omitted.
// Results are ordered by creditor name, then debtor name.
func (l *Ledger) Balances(ctx context.Context) ([]models.Balance, error) {
	users, err := l.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	expenses, err := l.store.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(users))
	names := make(map[int64]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
		names[u.ID] = u.Name
	}

	input := make([]calculator.Expense, len(expenses))
	for i, e := range expenses {
		input[i] = calculator.Expense{PayerID: e.PayerID, Cost: e.Cost, DebtorIDs: e.DebtorIDs}
	}

	debts, err := calculator.NetBalances(ids, input)
	if err != nil {
		return nil, err
	}

	balances := make([]models.Balance, len(debts))
	for i, d := range debts {
		balances[i] = models.Balance{
			Debtor:   names[d.DebtorID],
			Creditor: names[d.CreditorID],
			Amount:   d.Amount,
		}
	}
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].Creditor != balances[j].Creditor {
			return balances[i].Creditor < balances[j].Creditor
		}
		return balances[i].Debtor < balances[j].Debtor
	})
	return balances, nil
}

// Settle archives all live expenses under a new settlement event and
// clears the ledger. After it returns, ListExpenses and Balances are
// empty. The caller is expected to have confirmed intent.
func (l *Ledger) Settle(ctx context.Context) (int64, error) {
	id, err := l.store.Settle(ctx, validate.Timestamp(l.now()))
	if err != nil {
		return 0, err
	}
	slog.Info("ledger settled", "settlement_id", id)
	return id, nil
}

// Settlements returns all settlement events, newest first.
func (l *Ledger) Settlements(ctx context.Context) ([]models.Settlement, error) {
	return l.store.ListSettlements(ctx)
}

// SettledExpenses returns the archived expenses of one settlement with
// names resolved.
func (l *Ledger) SettledExpenses(ctx context.Context, settlementID int64) ([]models.ExpenseDetail, error) {
	expenses, err := l.store.SettledExpenses(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	return l.resolveExpenses(ctx, expenses)
}

// buildExpense validates all scalar fields and resolves every name
// reference, in that order, without writing anything.
func (l *Ledger) buildExpense(ctx context.Context, title, cost, date, payer string, debtors []string) (*models.Expense, error) {
	title, err := validate.Title(title)
	if err != nil {
		return nil, err
	}
	parsedCost, err := validate.Cost(cost)
	if err != nil {
		return nil, err
	}
	date, err = validate.Date(date)
	if err != nil {
		return nil, err
	}
	if len(debtors) == 0 {
		return nil, ErrNoDebtors
	}

	payerID, err := l.store.UserIDByName(ctx, payer)
	if err != nil {
		return nil, err
	}
	debtorIDs := make([]int64, len(debtors))
	for i, name := range debtors {
		id, err := l.store.UserIDByName(ctx, name)
		if err != nil {
			return nil, err
		}
		debtorIDs[i] = id
	}

	return &models.Expense{
		Title:     title,
		Cost:      parsedCost,
		Date:      date,
		PayerID:   payerID,
		DebtorIDs: debtorIDs,
	}, nil
}

func (l *Ledger) resolveExpenses(ctx context.Context, expenses []models.Expense) ([]models.ExpenseDetail, error) {
	names, err := l.store.UserNames(ctx)
	if err != nil {
		return nil, err
	}
	details := make([]models.ExpenseDetail, len(expenses))
	for i, e := range expenses {
		details[i] = resolveExpense(e, names)
	}
	return details, nil
}

func resolveExpense(e models.Expense, names map[int64]string) models.ExpenseDetail {
	debtors := make([]string, len(e.DebtorIDs))
	for i, id := range e.DebtorIDs {
		debtors[i] = names[id]
	}
	d := models.ExpenseDetail{
		ID:      e.ID,
		Title:   e.Title,
		Cost:    e.Cost,
		Date:    e.Date,
		Payer:   names[e.PayerID],
		Debtors: debtors,
	}
	if len(debtors) > 0 {
		d.Share = e.Cost / float64(len(debtors))
	}
	return d
}
