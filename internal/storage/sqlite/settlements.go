package sqlite

import (
	"context"
	"database/sql"

	"github.com/fairshare/fairshare/internal/models"
	"github.com/fairshare/fairshare/internal/storage"
)

// Settle archives every live expense under a new settlement and clears
// the live ledger, all in one transaction.
func (s *Store) Settle(ctx context.Context, settledAt string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeErr("begin settle", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "INSERT INTO settlements (settled_at) VALUES (?)", settledAt)
	if err != nil {
		return 0, storeErr("insert settlement", err)
	}
	settlementID, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("insert settlement", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT id, title, cost, date, payer_id FROM expenses")
	if err != nil {
		return 0, storeErr("select live expenses", err)
	}
	var live []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Title, &e.Cost, &e.Date, &e.PayerID); err != nil {
			rows.Close()
			return 0, storeErr("scan expense", err)
		}
		live = append(live, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, storeErr("iterate expenses", err)
	}

	for _, e := range live {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO settled_expenses (title, cost, date, payer_id, settlement_id) VALUES (?, ?, ?, ?, ?)",
			e.Title, e.Cost, e.Date, e.PayerID, settlementID,
		)
		if err != nil {
			return 0, storeErr("archive expense", err)
		}
		archivedID, err := res.LastInsertId()
		if err != nil {
			return 0, storeErr("archive expense", err)
		}

		// Shares move to the archive under the archived expense id.
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO settled_shares (expense_id, debtor_id) SELECT ?, debtor_id FROM shares WHERE expense_id = ? ORDER BY rowid",
			archivedID, e.ID,
		); err != nil {
			return 0, storeErr("archive shares", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM shares WHERE expense_id = ?", e.ID); err != nil {
			return 0, storeErr("clear shares", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", e.ID); err != nil {
			return 0, storeErr("clear expense", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, storeErr("commit settle", err)
	}
	return settlementID, nil
}

// ListSettlements returns all settlement events, newest first.
func (s *Store) ListSettlements(ctx context.Context) ([]models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, settled_at FROM settlements ORDER BY id DESC",
	)
	if err != nil {
		return nil, storeErr("list settlements", err)
	}
	defer rows.Close()

	var settlements []models.Settlement
	for rows.Next() {
		var st models.Settlement
		if err := rows.Scan(&st.ID, &st.SettledAt); err != nil {
			return nil, storeErr("scan settlement", err)
		}
		settlements = append(settlements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate settlements", err)
	}
	return settlements, nil
}

// SettledExpenses returns the archived expenses of one settlement.
func (s *Store) SettledExpenses(ctx context.Context, settlementID int64) ([]models.Expense, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM settlements WHERE id = ?", settlementID).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, storage.ErrSettlementNotFound
	}
	if err != nil {
		return nil, storeErr("check settlement", err)
	}

	return s.listExpenses(ctx,
		"SELECT id, title, cost, date, payer_id FROM settled_expenses WHERE settlement_id = ? ORDER BY date, id",
		"SELECT se.expense_id, se.debtor_id FROM settled_shares se JOIN settled_expenses e ON e.id = se.expense_id WHERE e.settlement_id = ? ORDER BY se.rowid",
		settlementID,
	)
}
