package sqlite

import (
	"context"
	"database/sql"

	"github.com/fairshare/fairshare/internal/models"
	"github.com/fairshare/fairshare/internal/storage"
)

// CreateExpense persists a new expense and its shares in one transaction.
func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin create expense", err)
	}
	defer tx.Rollback()

	if err := checkExpenseUsers(ctx, tx, e); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO expenses (title, cost, date, payer_id) VALUES (?, ?, ?, ?)",
		e.Title, e.Cost, e.Date, e.PayerID,
	)
	if err != nil {
		return storeErr("insert expense", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storeErr("insert expense", err)
	}

	if err := insertShares(ctx, tx, "shares", id, e.DebtorIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit create expense", err)
	}
	e.ID = id
	return nil
}

// UpdateExpense replaces the scalar fields and the full share set of an
// existing expense in one transaction.
func (s *Store) UpdateExpense(ctx context.Context, e *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin update expense", err)
	}
	defer tx.Rollback()

	if err := checkExpenseUsers(ctx, tx, e); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE expenses SET title = ?, cost = ?, date = ?, payer_id = ? WHERE id = ?",
		e.Title, e.Cost, e.Date, e.PayerID, e.ID,
	)
	if err != nil {
		return storeErr("update expense", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update expense", err)
	}
	if n == 0 {
		return storage.ErrExpenseNotFound
	}

	// Replace the share set wholesale rather than diffing it.
	if _, err := tx.ExecContext(ctx, "DELETE FROM shares WHERE expense_id = ?", e.ID); err != nil {
		return storeErr("delete shares", err)
	}
	if err := insertShares(ctx, tx, "shares", e.ID, e.DebtorIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit update expense", err)
	}
	return nil
}

// GetExpense retrieves a live expense with its debtors.
func (s *Store) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	e := &models.Expense{ID: id}
	err := s.db.QueryRowContext(ctx,
		"SELECT title, cost, date, payer_id FROM expenses WHERE id = ?", id,
	).Scan(&e.Title, &e.Cost, &e.Date, &e.PayerID)
	if err == sql.ErrNoRows {
		return nil, storage.ErrExpenseNotFound
	}
	if err != nil {
		return nil, storeErr("get expense", err)
	}

	e.DebtorIDs, err = s.Debtors(ctx, id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListExpenses returns all live expenses with their debtors, ordered by
// date then id.
func (s *Store) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	return s.listExpenses(ctx,
		"SELECT id, title, cost, date, payer_id FROM expenses ORDER BY date, id",
		"SELECT expense_id, debtor_id FROM shares ORDER BY rowid",
	)
}

// Debtors returns the debtor ids for an expense, duplicates included.
// An unknown expense id yields an empty slice; this read path is
// deliberately permissive.
func (s *Store) Debtors(ctx context.Context, expenseID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT debtor_id FROM shares WHERE expense_id = ? ORDER BY rowid", expenseID,
	)
	if err != nil {
		return nil, storeErr("get debtors", err)
	}
	defer rows.Close()

	debtors := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("scan debtor", err)
		}
		debtors = append(debtors, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate debtors", err)
	}
	return debtors, nil
}

// listExpenses runs an expense query plus a share query and stitches
// the debtors onto their expenses, avoiding a per-expense share query.
func (s *Store) listExpenses(ctx context.Context, expenseQuery, shareQuery string, args ...any) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, expenseQuery, args...)
	if err != nil {
		return nil, storeErr("list expenses", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	index := make(map[int64]int)
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Title, &e.Cost, &e.Date, &e.PayerID); err != nil {
			return nil, storeErr("scan expense", err)
		}
		index[e.ID] = len(expenses)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate expenses", err)
	}

	shareRows, err := s.db.QueryContext(ctx, shareQuery, args...)
	if err != nil {
		return nil, storeErr("list shares", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var expenseID, debtorID int64
		if err := shareRows.Scan(&expenseID, &debtorID); err != nil {
			return nil, storeErr("scan share", err)
		}
		if i, ok := index[expenseID]; ok {
			expenses[i].DebtorIDs = append(expenses[i].DebtorIDs, debtorID)
		}
	}
	if err := shareRows.Err(); err != nil {
		return nil, storeErr("iterate shares", err)
	}
	return expenses, nil
}

// checkExpenseUsers verifies the payer and every debtor exist before
// anything is written. Duplicate debtor ids are checked once.
func checkExpenseUsers(ctx context.Context, tx *sql.Tx, e *models.Expense) error {
	seen := map[int64]bool{}
	for _, id := range append([]int64{e.PayerID}, e.DebtorIDs...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		ok, err := userExists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrUserNotFound
		}
	}
	return nil
}

// insertShares inserts one row per debtor, preserving duplicates.
func insertShares(ctx context.Context, tx *sql.Tx, table string, expenseID int64, debtors []int64) error {
	for _, debtor := range debtors {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO "+table+" (expense_id, debtor_id) VALUES (?, ?)",
			expenseID, debtor,
		)
		if err != nil {
			return storeErr("insert share", err)
		}
	}
	return nil
}
