// Package calculator computes net balances from raw expenses. It is
// pure: no storage, no clock, float64 in and out.
package calculator

import (
	"fmt"
	"math"
	"sort"
)

// Epsilon is the zero threshold for the netting pass. Opposing gross
// balances whose difference is at or below it count as fully settled,
// which absorbs float64 rounding from non-terminating splits (such as
// 20 split three ways).
const Epsilon = 1e-9

// Expense carries the minimal expense information needed for balance
// calculations.
type Expense struct {
	PayerID   int64
	Cost      float64
	DebtorIDs []int64
}

// Debt is one netted balance: the debtor owes the creditor the amount.
type Debt struct {
	DebtorID   int64
	CreditorID int64
	Amount     float64
}

// NetBalances reduces a set of expenses over the given users to the
// minimal pairwise debts.
//
// Algorithm:
//  1. Accumulate a gross matrix: for each expense, every debtor
//     occurrence owes the payer cost/len(debtors). Duplicate debtors
//     each contribute a share, so duplicates weight the split.
//  2. Net each unordered pair bilaterally: the smaller direction is
//     canceled against the larger, leaving at most one direction per
//     pair. Self-pairs always cancel.
//  3. Emit all remaining amounts above Epsilon, ordered by creditor id
//     then debtor id.
//
// Netting is strictly bilateral: debts are never routed through a
// third party.
func NetBalances(userIDs []int64, expenses []Expense) ([]Debt, error) {
	ids := append([]int64(nil), userIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	// gross[creditor][debtor] = amount debtor owes creditor.
	gross := make(map[int64]map[int64]float64, len(ids))
	for _, c := range ids {
		gross[c] = make(map[int64]float64, len(ids))
	}

	for _, e := range expenses {
		if len(e.DebtorIDs) == 0 {
			return nil, fmt.Errorf("expense paid by user %d has no debtors", e.PayerID)
		}
		row, ok := gross[e.PayerID]
		if !ok {
			return nil, fmt.Errorf("expense references unknown payer %d", e.PayerID)
		}
		share := e.Cost / float64(len(e.DebtorIDs))
		for _, d := range e.DebtorIDs {
			if _, ok := gross[d]; !ok {
				return nil, fmt.Errorf("expense references unknown debtor %d", d)
			}
			row[d] += share
		}
	}

	for i, x := range ids {
		// x owes x nets to zero by definition.
		gross[x][x] = 0
		for _, y := range ids[i+1:] {
			a, b := gross[x][y], gross[y][x]
			switch {
			case math.Abs(a-b) <= Epsilon:
				gross[x][y], gross[y][x] = 0, 0
			case a > b:
				gross[x][y], gross[y][x] = a-b, 0
			default:
				gross[x][y], gross[y][x] = 0, b-a
			}
		}
	}

	var debts []Debt
	for _, creditor := range ids {
		for _, debtor := range ids {
			if amount := gross[creditor][debtor]; amount > Epsilon {
				debts = append(debts, Debt{DebtorID: debtor, CreditorID: creditor, Amount: amount})
			}
		}
	}
	return debts, nil
}
