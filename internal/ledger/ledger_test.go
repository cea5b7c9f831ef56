package ledger

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fairshare/fairshare/internal/models"
	"github.com/fairshare/fairshare/internal/storage"
	"github.com/fairshare/fairshare/internal/storage/sqlite"
	"github.com/fairshare/fairshare/internal/validate"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "fairshare-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	l := New(store)
	l.now = func() time.Time { return time.Date(2013, 2, 1, 12, 0, 0, 0, time.UTC) }
	return l
}

func addUsers(t *testing.T, l *Ledger, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := l.CreateUser(context.Background(), name); err != nil {
			t.Fatalf("CreateUser(%q) failed: %v", name, err)
		}
	}
}

func addExpense(t *testing.T, l *Ledger, title, cost, date, payer string, debtors ...string) int64 {
	t.Helper()
	id, err := l.AddExpense(context.Background(), title, cost, date, payer, debtors)
	if err != nil {
		t.Fatalf("AddExpense(%q) failed: %v", title, err)
	}
	return id
}

func wantBalances(t *testing.T, got []models.Balance, want []models.Balance) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d balances %v, want %d balances %v", len(got), got, len(want), want)
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.Debtor != w.Debtor || g.Creditor != w.Creditor {
			t.Errorf("balance %d: got %s -> %s, want %s -> %s", i, g.Debtor, g.Creditor, w.Debtor, w.Creditor)
		}
		if math.Abs(g.Amount-w.Amount) > 1e-6 {
			t.Errorf("balance %d: amount = %v, want %v", i, g.Amount, w.Amount)
		}
	}
}

func TestCreateUser(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	t.Run("valid names", func(t *testing.T) {
		addUsers(t, l, "alice", "bob")
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := l.CreateUser(ctx, "alice")
		if !errors.Is(err, storage.ErrDuplicateUser) {
			t.Errorf("expected ErrDuplicateUser, got %v", err)
		}
	})

	t.Run("invalid names never reach the store", func(t *testing.T) {
		for _, name := range []string{" carol", "carol ", "", "  ", "a,b", "42"} {
			_, err := l.CreateUser(ctx, name)
			var verr *validate.Error
			if !errors.As(err, &verr) {
				t.Errorf("CreateUser(%q): expected *validate.Error, got %v", name, err)
			}
		}
		users, err := l.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("expected 2 users, got %d", len(users))
		}
	})
}

func TestRenameUser(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	addUsers(t, l, "alice", "bob")

	if err := l.RenameUser(ctx, "bob", "robert"); err != nil {
		t.Fatalf("RenameUser failed: %v", err)
	}

	if err := l.RenameUser(ctx, "nobody", "somebody"); !errors.Is(err, storage.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if err := l.RenameUser(ctx, "robert", "alice"); !errors.Is(err, storage.ErrDuplicateUser) {
		t.Errorf("expected ErrDuplicateUser, got %v", err)
	}
	if err := l.RenameUser(ctx, "robert", " rob"); err == nil {
		t.Error("expected a validation error for an invalid new name")
	}
}

func TestAddExpenseValidationBoundary(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	addUsers(t, l, "alice", "bob")

	field := func(err error) validate.Field {
		var verr *validate.Error
		if !errors.As(err, &verr) {
			return ""
		}
		return verr.Field
	}

	t.Run("invalid cost", func(t *testing.T) {
		for _, cost := range []string{"0", "-5", "ten", "", "2*2"} {
			_, err := l.AddExpense(ctx, "test", cost, "20130101", "alice", []string{"bob"})
			if field(err) != validate.FieldCost {
				t.Errorf("cost %q: expected an invalid-cost error, got %v", cost, err)
			}
		}
	})

	t.Run("invalid date", func(t *testing.T) {
		future := time.Now().AddDate(0, 0, 1).Format("20060102")
		for _, date := range []string{"20130229", "130101", "jfjfjf", "", future} {
			_, err := l.AddExpense(ctx, "test", "20", date, "alice", []string{"bob"})
			if field(err) != validate.FieldDate {
				t.Errorf("date %q: expected an invalid-date error, got %v", date, err)
			}
		}
	})

	t.Run("invalid title", func(t *testing.T) {
		for _, title := range []string{" pizza ", " pizza", "", " "} {
			_, err := l.AddExpense(ctx, title, "20", "20130101", "alice", []string{"bob"})
			if field(err) != validate.FieldTitle {
				t.Errorf("title %q: expected an invalid-title error, got %v", title, err)
			}
		}
	})

	t.Run("no debtors", func(t *testing.T) {
		_, err := l.AddExpense(ctx, "test", "20", "20130101", "alice", nil)
		if !errors.Is(err, ErrNoDebtors) {
			t.Errorf("expected ErrNoDebtors, got %v", err)
		}
	})

	t.Run("unknown payer or debtor leaves the ledger unchanged", func(t *testing.T) {
		_, err := l.AddExpense(ctx, "test", "20", "20130101", "ghost", []string{"bob"})
		if !errors.Is(err, storage.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
		_, err = l.AddExpense(ctx, "test", "20", "20130101", "alice", []string{"bob", "ghost"})
		if !errors.Is(err, storage.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}

		expenses, err := l.ListExpenses(ctx)
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		if len(expenses) != 0 {
			t.Errorf("expected no expenses, got %d", len(expenses))
		}
	})
}

func TestListExpensesResolvesNames(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	addUsers(t, l, "alice", "bob")

	addExpense(t, l, "beer", "30", "20130106", "bob", "alice", "bob")
	addExpense(t, l, "pizza", "20", "20130105", "alice", "alice", "bob")

	expenses, err := l.ListExpenses(ctx)
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(expenses))
	}

	// Date ascending: pizza (0105) before beer (0106).
	first := expenses[0]
	if first.Title != "pizza" || first.Payer != "alice" || first.Date != "20130105" {
		t.Errorf("unexpected first expense: %+v", first)
	}
	if len(first.Debtors) != 2 || first.Debtors[0] != "alice" || first.Debtors[1] != "bob" {
		t.Errorf("unexpected debtors: %v", first.Debtors)
	}
	if math.Abs(first.Share-10) > 1e-9 {
		t.Errorf("share = %v, want 10", first.Share)
	}
}

func TestUpdateExpense(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	addUsers(t, l, "alice", "bob")

	id := addExpense(t, l, "pizza", "20", "20130101", "alice", "alice", "bob")

	if err := l.UpdateExpense(ctx, id, "fancy pizza", "30", "20130102", "bob", []string{"alice"}); err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}

	got, err := l.GetExpense(ctx, id)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if got.Title != "fancy pizza" || got.Cost != 30 || got.Date != "20130102" || got.Payer != "bob" {
		t.Errorf("unexpected expense after update: %+v", got)
	}
	if len(got.Debtors) != 1 || got.Debtors[0] != "alice" {
		t.Errorf("expected debtors replaced with [alice], got %v", got.Debtors)
	}

	if err := l.UpdateExpense(ctx, 9999, "x", "1", "20130101", "alice", []string{"bob"}); !errors.Is(err, storage.ErrExpenseNotFound) {
		t.Errorf("expected ErrExpenseNotFound, got %v", err)
	}
}

func TestDebtors(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	addUsers(t, l, "alice", "bob")

	id := addExpense(t, l, "beer", "30", "20130101", "bob", "alice", "alice", "bob")

	debtors, err := l.Debtors(ctx, id)
	if err != nil {
		t.Fatalf("Debtors failed: %v", err)
	}
	if len(debtors) != 3 || debtors[0] != "alice" || debtors[1] != "alice" || debtors[2] != "bob" {
		t.Errorf("unexpected debtors: %v", debtors)
	}

	// Permissive read: unknown ids yield an empty list.
	debtors, err = l.Debtors(ctx, 9999)
	if err != nil {
		t.Fatalf("Debtors failed: %v", err)
	}
	if len(debtors) != 0 {
		t.Errorf("expected empty list for unknown id, got %v", debtors)
	}
}

func TestBalances(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	t.Run("empty ledger", func(t *testing.T) {
		balances, err := l.Balances(ctx)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		if len(balances) != 0 {
			t.Errorf("expected no balances, got %v", balances)
		}
	})

	addUsers(t, l, "alice", "bob")

	t.Run("simple two way split", func(t *testing.T) {
		addExpense(t, l, "pizza", "20", "20130101", "alice", "alice", "bob")
		balances, err := l.Balances(ctx)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		wantBalances(t, balances, []models.Balance{
			{Debtor: "bob", Creditor: "alice", Amount: 10},
		})
	})

	t.Run("opposing expenses net to a single balance", func(t *testing.T) {
		addExpense(t, l, "wine", "30", "20130101", "alice", "alice", "bob")
		addExpense(t, l, "groceries", "40", "20130101", "bob", "alice", "bob")
		balances, err := l.Balances(ctx)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		wantBalances(t, balances, []models.Balance{
			{Debtor: "bob", Creditor: "alice", Amount: 5},
		})
	})

	t.Run("a user with no expenses adds no pairs", func(t *testing.T) {
		addUsers(t, l, "carol")
		balances, err := l.Balances(ctx)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		wantBalances(t, balances, []models.Balance{
			{Debtor: "bob", Creditor: "alice", Amount: 5},
		})
	})

	t.Run("three way expenses", func(t *testing.T) {
		addExpense(t, l, "rent", "105", "20130102", "carol", "alice", "bob")
		addExpense(t, l, "trip", "210", "20130103", "carol", "alice", "bob", "carol")
		balances, err := l.Balances(ctx)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		// Ordered by creditor, then debtor.
		wantBalances(t, balances, []models.Balance{
			{Debtor: "bob", Creditor: "alice", Amount: 5},
			{Debtor: "alice", Creditor: "carol", Amount: 122.5},
			{Debtor: "bob", Creditor: "carol", Amount: 122.5},
		})
	})

	t.Run("idempotent without intervening writes", func(t *testing.T) {
		first, err := l.Balances(ctx)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		second, err := l.Balances(ctx)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		wantBalances(t, second, first)
	})
}

func TestSettle(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	addUsers(t, l, "alice", "bob")

	addExpense(t, l, "pizza", "20", "20130105", "alice", "alice", "bob")
	addExpense(t, l, "beer", "30", "20130106", "bob", "alice", "bob")

	before, err := l.ListExpenses(ctx)
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}

	settlementID, err := l.Settle(ctx)
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	t.Run("live ledger and balances are empty", func(t *testing.T) {
		expenses, err := l.ListExpenses(ctx)
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		if len(expenses) != 0 {
			t.Errorf("expected no live expenses, got %d", len(expenses))
		}
		balances, err := l.Balances(ctx)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		if len(balances) != 0 {
			t.Errorf("expected no balances, got %v", balances)
		}
	})

	t.Run("archive matches the ledger before settling", func(t *testing.T) {
		archived, err := l.SettledExpenses(ctx, settlementID)
		if err != nil {
			t.Fatalf("SettledExpenses failed: %v", err)
		}
		if len(archived) != len(before) {
			t.Fatalf("expected %d archived expenses, got %d", len(before), len(archived))
		}
		for i := range before {
			b, a := before[i], archived[i]
			if a.Title != b.Title || a.Cost != b.Cost || a.Date != b.Date || a.Payer != b.Payer {
				t.Errorf("archived expense %d differs: got %+v, want %+v", i, a, b)
			}
			if len(a.Debtors) != len(b.Debtors) {
				t.Errorf("archived expense %d debtors differ: got %v, want %v", i, a.Debtors, b.Debtors)
			}
		}
	})

	t.Run("settlement event carries the timestamp", func(t *testing.T) {
		settlements, err := l.Settlements(ctx)
		if err != nil {
			t.Fatalf("Settlements failed: %v", err)
		}
		if len(settlements) != 1 {
			t.Fatalf("expected 1 settlement, got %d", len(settlements))
		}
		if settlements[0].SettledAt != "20130201120000" {
			t.Errorf("SettledAt = %q, want 20130201120000", settlements[0].SettledAt)
		}
	})

	t.Run("unknown settlement id", func(t *testing.T) {
		_, err := l.SettledExpenses(ctx, 9999)
		if !errors.Is(err, storage.ErrSettlementNotFound) {
			t.Errorf("expected ErrSettlementNotFound, got %v", err)
		}
	})

	t.Run("users survive settlement", func(t *testing.T) {
		users, err := l.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("expected 2 users, got %d", len(users))
		}
	})
}
