package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/fairshare/fairshare/internal/models"
	"github.com/fairshare/fairshare/internal/storage"
)

// The Postgres driver needs a live server; set FAIRSHARE_TEST_POSTGRES_DSN
// to run these. The sqlite driver tests cover the shared semantics.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("FAIRSHARE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FAIRSHARE_TEST_POSTGRES_DSN not set")
	}

	store, err := New(dsn)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Unique names so reruns against the same database don't collide.
	suffix := fmt.Sprintf("pg%d", time.Now().UnixNano())
	aliceName := "alice-" + suffix
	bobName := "bob-" + suffix

	alice, err := store.CreateUser(ctx, aliceName)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	bob, err := store.CreateUser(ctx, bobName)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if _, err := store.CreateUser(ctx, aliceName); !errors.Is(err, storage.ErrDuplicateUser) {
		t.Errorf("expected ErrDuplicateUser, got %v", err)
	}

	e := &models.Expense{
		Title:     "pizza " + suffix,
		Cost:      20,
		Date:      "20130105",
		PayerID:   alice,
		DebtorIDs: []int64{alice, bob},
	}
	if err := store.CreateExpense(ctx, e); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	got, err := store.GetExpense(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if got.Cost != 20 || len(got.DebtorIDs) != 2 {
		t.Errorf("unexpected expense: %+v", got)
	}

	bad := &models.Expense{Title: "ghost", Cost: 1, Date: "20130101", PayerID: -1, DebtorIDs: []int64{alice}}
	if err := store.CreateExpense(ctx, bad); !errors.Is(err, storage.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	settlementID, err := store.Settle(ctx, "20130201120000")
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	live, err := store.ListExpenses(ctx)
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(live) != 0 {
		t.Errorf("expected empty live ledger, got %d expenses", len(live))
	}
	archived, err := store.SettledExpenses(ctx, settlementID)
	if err != nil {
		t.Fatalf("SettledExpenses failed: %v", err)
	}
	found := false
	for _, a := range archived {
		if a.Title == e.Title {
			found = true
		}
	}
	if !found {
		t.Errorf("archived settlement is missing %q", e.Title)
	}
}
